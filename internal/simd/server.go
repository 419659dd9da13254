package simd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"cityviz/internal/sim"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler serves the simulation HTTP surface over a World. The routes and
// payload shapes match what the viewer's snapshot client expects; the viewer
// cannot tell this daemon from the real simulation.
type Handler struct {
	world *World
}

// NewHandler wraps a world in the HTTP surface.
func NewHandler(w *World) *Handler {
	return &Handler{world: w}
}

// Router builds the chi router. Pure: no goroutines, no listeners, safe for
// httptest.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/init", h.handleInit)
	r.Get("/init", h.handleInit)
	r.Get("/update", h.handleUpdate)
	r.Get("/getCars", h.handleGetCars)
	r.Get("/getLights", h.handleGetLights)
	r.Get("/getObstacles", h.handleGetObstacles)
	r.Get("/getDestination", h.handleGetDestinations)
	r.Get("/getRoads", h.handleGetRoads)

	return r
}

// Serve starts listening. Blocks until the listener fails.
func (h *Handler) Serve(addr string) error {
	log.Printf("🚦 Mock simulation serving %dx%d map on %s",
		h.world.cityMap.Width, h.world.cityMap.Height, addr)
	return http.ListenAndServe(addr, h.Router())
}

func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	maxCars := 0
	if r.Method == http.MethodPost {
		var req struct {
			NAgents int `json:"NAgents"`
			Width   int `json:"width"`
			Height  int `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusInternalServerError,
				map[string]string{"message": "Error initializing the model"})
			return
		}
		// The map fixes the grid size; only the car cap is honored.
		maxCars = req.NAgents
	}

	h.world.Reset(maxCars)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Parameters received, model initiated. Size: %dx%d",
			h.world.cityMap.Width, h.world.cityMap.Height),
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	step := h.world.Step()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     fmt.Sprintf("Model updated to step %d.", step),
		"currentStep": step,
	})
}

func (h *Handler) handleGetCars(w http.ResponseWriter, r *http.Request) {
	writePositions(w, h.world.Cars())
}

func (h *Handler) handleGetLights(w http.ResponseWriter, r *http.Request) {
	writePositions(w, h.world.Lights())
}

func (h *Handler) handleGetObstacles(w http.ResponseWriter, r *http.Request) {
	writePositions(w, h.world.Obstacles())
}

func (h *Handler) handleGetDestinations(w http.ResponseWriter, r *http.Request) {
	writePositions(w, h.world.Destinations())
}

func (h *Handler) handleGetRoads(w http.ResponseWriter, r *http.Request) {
	writePositions(w, h.world.Roads())
}

// writePositions wraps a layer in the {"positions": [...]} envelope.
func writePositions[T sim.AgentState | sim.LightState | sim.StaticProp](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"positions": items})
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}
