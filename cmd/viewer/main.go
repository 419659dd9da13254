package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cityviz/internal/api"
	"cityviz/internal/config"
	"cityviz/internal/scene"
	"cityviz/internal/sim"
	"cityviz/internal/viz"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🏙️ ================================")
	log.Println("🏙️  CITYVIZ - TRAFFIC VIEWER")
	log.Println("🏙️ ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	cfg := config.Load()

	log.Printf("📡 Simulation: %s", cfg.Sim.BaseURL)
	log.Printf("🎬 Config: %d FPS, %v cycle, %v position tween, %v rotation tween",
		cfg.Server.FPS, cfg.Scene.CycleDuration, cfg.Scene.PositionDuration, cfg.Scene.RotationDuration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := sim.NewClient(cfg.Sim)

	// Handshake with the simulation. Retry with backoff so the viewer can be
	// started before the simulation is up.
	if err := initWithRetry(ctx, client, cfg.Sim); err != nil {
		log.Fatalf("❌ Simulation handshake failed: %v", err)
	}
	log.Printf("✅ Simulation initialized (%d agents, %dx%d)",
		cfg.Sim.AgentCount, cfg.Sim.WorldWidth, cfg.Sim.WorldHeight)

	// Static layers are fetched once; they never change during a run.
	static, err := client.Static(ctx)
	if err != nil {
		log.Fatalf("❌ Static layer fetch failed: %v", err)
	}
	log.Printf("🗺️ Static layers: %d roads, %d obstacles, %d destinations",
		len(static.Roads), len(static.Obstacles), len(static.Destinations))

	sc := scene.NewScene(cfg.Scene)
	sc.SetStatic(*static)

	refresh := func(ctx context.Context) error {
		snap, err := client.Snapshot(ctx)
		if err != nil {
			sim.RecordSnapshotFailure()
			return err
		}

		started := time.Now()
		sc.Reconcile(snap, started)
		api.RecordReconcile(time.Since(started))

		stats := sc.GetStats()
		api.UpdateSceneGauges(stats.AgentCount, stats.LightCount)
		return nil
	}

	// Seed the scene synchronously so the first frame is not empty.
	if err := refresh(ctx); err != nil {
		log.Printf("⚠️ Initial snapshot failed: %v", err)
	}

	scheduler := scene.NewCycleScheduler(ctx, cfg.Scene.CycleDuration, refresh)

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := api.NewServer(sc, scheduler, api.ServerOptions{
		Painter: viz.NewPainter(cfg.Preview),
	})

	// Frame loop: advance the cycle at display rate. Tween interpolation
	// itself is evaluated lazily on each Transforms read, so this loop only
	// paces the scheduler.
	frameInterval := time.Second / time.Duration(cfg.Server.FPS)
	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				started := time.Now()
				scheduler.Advance(now.Sub(last))
				last = now
				api.RecordFrameAdvance(time.Since(started))
			}
		}
	}()

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Viewer ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	cancel()
	server.Stop()
	log.Println("👋 Goodbye!")
}

// initWithRetry calls /init until it succeeds or the budget runs out.
func initWithRetry(ctx context.Context, client *sim.Client, cfg config.SimConfig) error {
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		err = client.Init(ctx, cfg.AgentCount, cfg.WorldWidth, cfg.WorldHeight)
		if err == nil {
			return nil
		}
		log.Printf("⚠️ Init attempt %d failed: %v", attempt, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return err
}
