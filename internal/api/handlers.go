package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"

	"spriteworld/internal/geom"
	"spriteworld/internal/world"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.engine.Snapshot()

	stats := map[string]interface{}{
		"step":           snapshot.Step,
		"sprites":        len(snapshot.Sprites),
		"candidatePairs": snapshot.Stats.CandidatePairs,
		"collisions":     snapshot.Stats.Collisions,
		"running":        h.engine.Running(),
		"tickRate":       h.engine.TickRate(),
	}

	if h.recorder != nil {
		if summary, err := h.recorder.Summarize(); err == nil {
			stats["recorded"] = summary
		}
	}

	writeJSON(w, stats)
}

// spriteRequest is the creation payload for a single sprite. Zero
// values fall back to the world defaults, so callers only send what
// they care about.
type spriteRequest struct {
	Name           string  `json:"name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	W              float64 `json:"w"`
	H              float64 `json:"h"`
	VelX           float64 `json:"velX"`
	VelY           float64 `json:"velY"`
	Shape          string  `json:"shape"` // "box" (default), "circle", "point"
	Radius         float64 `json:"radius"`
	Mass           float64 `json:"mass"`
	Restitution    float64 `json:"restitution"`
	Friction       float64 `json:"friction"`
	MaxSpeed       float64 `json:"maxSpeed"`
	Scale          float64 `json:"scale"`
	Depth          int     `json:"depth"`
	Life           int     `json:"life"`
	Immovable      bool    `json:"immovable"`
	BounceOffEdges bool    `json:"bounceOffEdges"`
}

func (h *routerHandlers) applySpriteRequest(wld *world.World, req spriteRequest) (*world.Sprite, error) {
	s, err := wld.NewSprite(req.Name, geom.Vec2{X: req.X, Y: req.Y}, req.W, req.H)
	if err != nil {
		return nil, err
	}

	s.Vel = geom.Vec2{X: req.VelX, Y: req.VelY}
	s.Immovable = req.Immovable
	s.BounceOffEdges = req.BounceOffEdges
	s.Friction = req.Friction
	s.Depth = req.Depth

	if req.Mass != 0 {
		s.Mass = req.Mass
	}
	if req.Restitution != 0 {
		s.Restitution = req.Restitution
	}
	if req.MaxSpeed != 0 {
		s.MaxSpeed = req.MaxSpeed
	}
	if req.Scale != 0 {
		s.Scale = req.Scale
	}
	if req.Life != 0 {
		s.Life = req.Life
	}

	switch req.Shape {
	case "", "box":
		s.UseBoxCollider()
	case "circle":
		if err := s.UseCircleCollider(req.Radius); err != nil {
			wld.Remove(s)
			return nil, err
		}
	case "point":
		s.UsePointCollider()
	default:
		wld.Remove(s)
		return nil, fmt.Errorf("unknown shape %q", req.Shape)
	}

	return s, nil
}

func (h *routerHandlers) handleSpriteCreate(w http.ResponseWriter, r *http.Request) {
	var req spriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var created *world.Sprite
	var createErr error
	h.engine.Locked(func(wld *world.World) {
		created, createErr = h.applySpriteRequest(wld, req)
	})

	if createErr != nil {
		status := http.StatusBadRequest
		if errors.Is(createErr, world.ErrWorldFull) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, createErr.Error(), status)
		return
	}

	writeJSON(w, map[string]interface{}{
		"id":   created.ID,
		"name": created.Name,
	})
}

func (h *routerHandlers) handleSpriteBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int     `json:"count"`
		Size  float64 `json:"size"`
		Speed float64 `json:"speed"`
		Seed  int64   `json:"seed"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Count <= 0 {
		req.Count = 10
	}
	if req.Count > 200 {
		req.Count = 200
	}
	if req.Size <= 0 {
		req.Size = 16
	}
	if req.Speed <= 0 {
		req.Speed = 50
	}

	rng := rand.New(rand.NewSource(req.Seed))

	count := 0
	h.engine.Locked(func(wld *world.World) {
		b := wld.Bounds()
		for i := 0; i < req.Count; i++ {
			pos := geom.Vec2{
				X: b.Center.X + (rng.Float64()*2-1)*(b.HalfW-req.Size),
				Y: b.Center.Y + (rng.Float64()*2-1)*(b.HalfH-req.Size),
			}
			s, err := wld.NewSprite(fmt.Sprintf("bot-%d", i), pos, req.Size, req.Size)
			if err != nil {
				break
			}
			s.Vel = geom.Vec2{
				X: (rng.Float64()*2 - 1) * req.Speed,
				Y: (rng.Float64()*2 - 1) * req.Speed,
			}
			s.BounceOffEdges = true
			count++
		}
	})

	writeJSON(w, map[string]interface{}{
		"success": true,
		"count":   count,
	})
}

func (h *routerHandlers) handleSimStart(w http.ResponseWriter, r *http.Request) {
	log.Println("▶️ Simulation start requested via API")
	h.engine.Start()
	writeJSON(w, map[string]bool{"success": true, "running": true})
}

func (h *routerHandlers) handleSimStop(w http.ResponseWriter, r *http.Request) {
	log.Println("⏸️ Simulation stop requested via API")
	h.engine.Stop()
	writeJSON(w, map[string]bool{"success": true, "running": false})
}

func (h *routerHandlers) handleSimStep(w http.ResponseWriter, r *http.Request) {
	if h.engine.Running() {
		writeError(w, "Cannot single-step while running", http.StatusConflict)
		return
	}
	h.engine.Tick()
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleRecorderCollisions(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, "Recorder disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.recorder.RecentCollisions(limit)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleRecorderPairs(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, "Recorder disabled", http.StatusNotFound)
		return
	}

	pairs, err := h.recorder.BusiestPairs(20)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, pairs)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
