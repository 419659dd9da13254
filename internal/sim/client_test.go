package sim_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cityviz/internal/config"
	"cityviz/internal/sim"
)

func testClient(baseURL string) *sim.Client {
	cfg := config.DefaultSim()
	cfg.BaseURL = baseURL
	cfg.RequestTimeout = 2 * time.Second
	cfg.PollRate = 1000 // tests should never wait on the limiter
	cfg.PollBurst = 1000
	return sim.NewClient(cfg)
}

// newFakeSim stands up an httptest server speaking the simulation's wire
// format.
func newFakeSim(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	step := 0
	mux := http.NewServeMux()

	mux.HandleFunc("/init", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			NAgents int `json:"NAgents"`
			Width   int `json:"width"`
			Height  int `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NAgents == 0 {
			http.Error(w, "bad init body", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	mux.HandleFunc("/update", func(w http.ResponseWriter, r *http.Request) {
		step++
		json.NewEncoder(w).Encode(map[string]interface{}{"currentStep": step})
	})

	mux.HandleFunc("/getCars", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"positions": []map[string]interface{}{
				{"id": "1", "x": 2.0, "y": 1.0, "z": 3.0, "dirActual": "Up", "nextDir": "Left"},
				{"id": "2", "x": 4.0, "y": 1.0, "z": 5.0}, // no direction reported
			},
		})
	})

	mux.HandleFunc("/getLights", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"positions": []map[string]interface{}{
				{"id": "l1", "x": 0.0, "y": 1.0, "z": 0.0, "state": true},
				{"id": "l2", "x": 6.0, "y": 1.0, "z": 0.0, "state": false},
			},
		})
	})

	static := func(items []map[string]interface{}) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"positions": items})
		}
	}
	mux.HandleFunc("/getObstacles", static([]map[string]interface{}{
		{"id": "o1", "x": 1.0, "y": 1.0, "z": 1.0, "rotation": 90.0, "is_tree": true},
	}))
	mux.HandleFunc("/getDestination", static([]map[string]interface{}{
		{"id": "d1", "x": 8.0, "y": 1.0, "z": 8.0, "rotation": 180.0},
	}))
	mux.HandleFunc("/getRoads", static([]map[string]interface{}{
		{"id": "r1", "x": 0.0, "y": 1.0, "z": 0.0},
		{"id": "r2", "x": 1.0, "y": 1.0, "z": 0.0},
	}))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &step
}

func TestInitHandshake(t *testing.T) {
	ts, _ := newFakeSim(t)
	client := testClient(ts.URL)

	if err := client.Init(context.Background(), 10, 36, 35); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func TestSnapshotAggregatesStepAgentsAndLights(t *testing.T) {
	ts, step := newFakeSim(t)
	client := testClient(ts.URL)

	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.Step != 1 || *step != 1 {
		t.Errorf("step: got %d (server %d), want 1", snap.Step, *step)
	}
	if len(snap.Agents) != 2 {
		t.Fatalf("agents: got %d, want 2", len(snap.Agents))
	}
	if len(snap.Lights) != 2 {
		t.Fatalf("lights: got %d, want 2", len(snap.Lights))
	}

	a := snap.Agents[0]
	if a.ID != "1" || a.X != 2 || a.Z != 3 {
		t.Errorf("agent 1: got %+v", a)
	}
	if a.Heading() != sim.HeadingUp || a.NextHeading() != sim.HeadingLeft {
		t.Errorf("agent 1 headings: got %s/%s, want Up/Left", a.Heading(), a.NextHeading())
	}

	if !snap.Lights[0].Green || snap.Lights[1].Green {
		t.Errorf("light states: got %v/%v, want true/false",
			snap.Lights[0].Green, snap.Lights[1].Green)
	}
}

// TestMissingDirectionDefaultsRight mirrors the simulation's fallback for
// agents that never report a direction.
func TestMissingDirectionDefaultsRight(t *testing.T) {
	ts, _ := newFakeSim(t)
	client := testClient(ts.URL)

	agents, err := client.Agents(context.Background())
	if err != nil {
		t.Fatalf("Agents: %v", err)
	}

	a := agents[1]
	if a.Heading() != sim.HeadingRight {
		t.Errorf("missing dirActual: got %s, want Right", a.Heading())
	}
	if a.NextHeading() != sim.HeadingRight {
		t.Errorf("missing nextDir: got %s, want Right", a.NextHeading())
	}
}

func TestStaticFetchesAllLayers(t *testing.T) {
	ts, _ := newFakeSim(t)
	client := testClient(ts.URL)

	static, err := client.Static(context.Background())
	if err != nil {
		t.Fatalf("Static: %v", err)
	}

	if len(static.Obstacles) != 1 || len(static.Destinations) != 1 || len(static.Roads) != 2 {
		t.Errorf("layers: got %d/%d/%d obstacles/destinations/roads, want 1/1/2",
			len(static.Obstacles), len(static.Destinations), len(static.Roads))
	}
	if !static.Obstacles[0].IsTree || static.Obstacles[0].Rotation != 90 {
		t.Errorf("obstacle decode: got %+v", static.Obstacles[0])
	}
}

// TestTransportFailureReported verifies a dead endpoint produces an error,
// not a partial snapshot.
func TestTransportFailureReported(t *testing.T) {
	ts, _ := newFakeSim(t)
	client := testClient(ts.URL)
	ts.Close()

	if _, err := client.Snapshot(context.Background()); err == nil {
		t.Error("expected an error from a closed endpoint")
	}
}

// TestServerErrorStatusReported verifies non-200 responses surface as errors.
func TestServerErrorStatusReported(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := testClient(ts.URL)
	if _, err := client.Agents(context.Background()); err == nil {
		t.Error("expected an error from a 500 response")
	}
	if err := client.Init(context.Background(), 1, 1, 1); err == nil {
		t.Error("expected an error from a 500 init")
	}
}
