package api

import (
	"encoding/json"
	"image/png"
	"net/http"
	"time"

	"cityviz/internal/viz"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	frame := viz.BuildFrame(h.scene, start)
	writeJSON(w, frame)

	RecordRequest(r.Method, "/api/frame", time.Since(start))
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.scene.GetStats()

	writeJSON(w, map[string]interface{}{
		"scene":         stats,
		"cycleProgress": h.scheduler.Progress(),
		"cycleState":    h.scheduler.State().String(),
		"refreshes":     h.scheduler.GetStats(),
	})
}

func (h *routerHandlers) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	signals := h.scene.Signals()

	out := make([]map[string]interface{}, 0, len(signals))
	for _, sig := range signals {
		out = append(out, map[string]interface{}{
			"id":         sig.ID,
			"position":   sig.Position,
			"green":      sig.Green,
			"lightIndex": sig.LightIndex,
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetSettled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	settled, ok := h.scene.Settled(id)
	if !ok {
		writeError(w, "Unknown agent", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"id":      id,
		"settled": settled,
	})
}

func (h *routerHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	if h.painter == nil {
		writeError(w, "Preview disabled", http.StatusNotFound)
		return
	}

	start := time.Now()
	img := h.painter.Render(h.scene, start)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		// Headers already sent; nothing useful to report to the client
		return
	}

	RecordRequest(r.Method, "/preview.png", time.Since(start))
}

// writeJSON writes a JSON response with the correct content type
func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
