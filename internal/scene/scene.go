package scene

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"cityviz/internal/config"
	"cityviz/internal/sim"
)

// Scene owns the agent and signal tables and is the single mutation surface
// for both. Reconciliation (snapshot merge) and the draw path's
// tween-completion commits are serialized behind one lock, so only one
// logical actor ever mutates a record at a time; the draw path never observes
// a partially applied snapshot.
type Scene struct {
	mu  sync.RWMutex
	cfg config.SceneConfig

	agents  map[string]*AgentRecord
	signals map[string]*SignalRecord
	// signalOrder preserves snapshot order so dynamic light indices are
	// reproducible across runs with identical input.
	signalOrder []string

	lights *LightManager
	static sim.StaticLayers

	// rng picks cosmetic variants at record creation. Seeded once; variant
	// choice is the only nondeterminism in the engine.
	rng *rand.Rand

	step       int
	reconciles uint64
}

// Stats is a point-in-time summary of the scene for the API and metrics.
type Stats struct {
	AgentCount  int    `json:"agentCount"`
	SignalCount int    `json:"signalCount"`
	GreenCount  int    `json:"greenCount"`
	LightCount  int    `json:"lightCount"`
	Step        int    `json:"step"`
	Reconciles  uint64 `json:"reconciles"`
}

// NewScene creates an empty scene with the given tuning.
func NewScene(cfg config.SceneConfig) *Scene {
	return &Scene{
		cfg:     cfg,
		agents:  make(map[string]*AgentRecord),
		signals: make(map[string]*SignalRecord),
		lights: NewLightManager(LightConfig{
			Radius: cfg.LightRadius,
			Offset: cfg.LightOffset,
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// motionConfig extracts the interpolator tuning.
func (s *Scene) motionConfig() MotionConfig {
	return MotionConfig{
		PositionDuration: s.cfg.PositionDuration,
		RotationDuration: s.cfg.RotationDuration,
		HopHeight:        s.cfg.HopHeight,
	}
}

// gaitConfig extracts the animation selector tuning.
func (s *Scene) gaitConfig() GaitConfig {
	return GaitConfig{
		FrameDuration: s.cfg.GaitFrameDuration,
		FrameCount:    s.cfg.GaitFrameCount,
		IdleFrame:     s.cfg.GaitIdleFrame,
	}
}

// SetStatic installs the one-shot world layers fetched at startup.
func (s *Scene) SetStatic(layers sim.StaticLayers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.static = layers
}

// Static returns the immutable world layers.
func (s *Scene) Static() sim.StaticLayers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.static
}

// Reconcile merges one snapshot into the scene: agents, signals and the
// dynamic light set, applied as a single pass under the lock so the next draw
// sees either the whole snapshot or none of it. A failed poll never reaches
// this method; the tables stay untouched on failure.
func (s *Scene) Reconcile(snap *sim.Snapshot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileAgents(snap.Agents, now)
	s.reconcileSignals(snap.Lights)
	s.step = snap.Step
	s.reconciles++
}

// reconcileAgents applies the agent list. Callers hold the lock.
//
// Update rule: the new tween's origin is the position being DISPLAYED at this
// instant, computed through the outgoing tween, so reconciliation can never
// jump an agent back to a stale origin. Ids absent from the snapshot are
// removed outright; the simulation has retired them.
func (s *Scene) reconcileAgents(states []sim.AgentState, now time.Time) {
	mcfg := s.motionConfig()
	seen := make(map[string]struct{}, len(states))

	for _, st := range states {
		seen[st.ID] = struct{}{}
		target := Vec3{X: st.X, Y: st.Y, Z: st.Z}

		rec, ok := s.agents[st.ID]
		if !ok {
			angle := st.Heading().Angle()
			s.agents[st.ID] = &AgentRecord{
				ID:               st.ID,
				Authoritative:    target,
				CommittedHeading: angle,
				PendingHeading:   angle,
				AnimStart:        now,
				Variant:          s.rng.Intn(s.cfg.VariantCount),
			}
			continue
		}

		displayed := displayedBase(rec, now, mcfg)

		if displayed.PlanarDistance(target) > s.cfg.SnapDistance {
			// Stale record or respawn at a disjoint location: snap, no tween.
			rec.Authoritative = target
			rec.Pos = nil
			rec.Moving = false
		} else {
			moving := displayed.PlanarDistance(target) > s.cfg.MoveEpsilon
			if moving && !rec.Moving {
				rec.AnimStart = now // gait restarts at frame 0 on first step
			}
			rec.Moving = moving
			rec.Pos = &PositionTween{Origin: displayed, Target: target, Start: now}
			rec.Authoritative = target
		}

		s.reconcileHeading(rec, st.NextHeading().Angle(), now, mcfg)
	}

	for id := range s.agents {
		if _, ok := seen[id]; !ok {
			delete(s.agents, id)
		}
	}
}

// reconcileHeading starts a turn toward the snapshot's upcoming heading.
// Heading reconciliation is independent of position: the visual model turns
// to face its next move before executing it. The turn starts from the
// currently interpolated angle (not the last committed one) and always takes
// the shortest angular path.
func (s *Scene) reconcileHeading(rec *AgentRecord, next float64, now time.Time, mcfg MotionConfig) {
	current, _ := RotationAt(rec, now, mcfg)

	pendingDiff := math.Abs(ShortestAngleDelta(rec.PendingHeading, next))
	currentDiff := math.Abs(ShortestAngleDelta(current, next))
	if pendingDiff <= s.cfg.AngleEpsilon && currentDiff <= s.cfg.AngleEpsilon {
		return
	}

	rec.PendingHeading = next
	delta := ShortestAngleDelta(current, next)
	if math.Abs(delta) <= s.cfg.AngleEpsilon {
		// Already facing the new target; commit without a tween.
		rec.CommittedHeading = NormalizeAngle(next)
		rec.Rot = nil
		return
	}

	rec.Rot = &RotationTween{
		Origin: current,
		Target: current + delta,
		Start:  now,
	}
}

// displayedBase is the position currently shown for a record, without the
// gait bounce (the bounce is a draw-time offset, not part of the tween
// endpoints).
func displayedBase(rec *AgentRecord, now time.Time, mcfg MotionConfig) Vec3 {
	if rec.Pos == nil {
		return rec.Authoritative
	}
	t := tweenProgress(now, rec.Pos.Start, mcfg.PositionDuration)
	return Lerp(rec.Pos.Origin, rec.Pos.Target, t)
}

// reconcileSignals applies the signal list and regenerates the dynamic light
// set. Callers hold the lock.
func (s *Scene) reconcileSignals(states []sim.LightState) {
	seen := make(map[string]struct{}, len(states))
	s.signalOrder = s.signalOrder[:0]

	ordered := make([]*SignalRecord, 0, len(states))
	for _, st := range states {
		seen[st.ID] = struct{}{}

		rec, ok := s.signals[st.ID]
		if !ok {
			rec = &SignalRecord{ID: st.ID}
			s.signals[st.ID] = rec
		}
		rec.Position = Vec3{X: st.X, Y: st.Y, Z: st.Z}
		rec.Green = st.Green

		s.signalOrder = append(s.signalOrder, st.ID)
		ordered = append(ordered, rec)
	}

	for id := range s.signals {
		if _, ok := seen[id]; !ok {
			delete(s.signals, id)
		}
	}

	s.lights.Rebuild(ordered)
}

// Transforms computes the draw transform for every live agent at the given
// time, committing any tween that has completed (t >= 1): the target becomes
// the new authoritative value and the tween is cleared. Commits run under the
// same lock as reconciliation, and a committed transform equals the in-flight
// one at the same timestamp, so calling this twice at one instant yields
// identical output.
//
// Output is sorted by id for stable iteration.
func (s *Scene) Transforms(now time.Time) []AgentTransform {
	s.mu.Lock()
	defer s.mu.Unlock()

	mcfg := s.motionConfig()
	gcfg := s.gaitConfig()

	out := make([]AgentTransform, 0, len(s.agents))
	for _, rec := range s.agents {
		pos, posDone := PositionAt(rec, now, mcfg)
		if posDone {
			rec.Authoritative = rec.Pos.Target
			rec.Pos = nil
			rec.Moving = false
			pos = rec.Authoritative
		}

		angle, rotDone := RotationAt(rec, now, mcfg)
		if rotDone {
			rec.CommittedHeading = NormalizeAngle(rec.Rot.Target)
			rec.Rot = nil
			angle = rec.CommittedHeading
		}

		out = append(out, AgentTransform{
			ID:          rec.ID,
			Translation: pos,
			Rotation:    angle,
			Frame:       FrameAt(rec.Moving, rec.AnimStart, now, gcfg),
			Variant:     rec.Variant,
			Moving:      rec.Moving,
			Lighting:    s.lights.UniformsAt(pos),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Settled reports whether the given agent has no active position tween.
// The second return is false when the id is unknown. Debug/test surface.
func (s *Scene) Settled(id string) (settled, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.agents[id]
	if !ok {
		return false, false
	}
	return rec.Settled(), true
}

// Agent returns a copy of the record for the given id, for tests and debug
// endpoints. The live record stays under the scene lock.
func (s *Scene) Agent(id string) (AgentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.agents[id]
	if !ok {
		return AgentRecord{}, false
	}
	cp := *rec
	return cp, true
}

// Signals returns copies of the signal records in snapshot order.
func (s *Scene) Signals() []SignalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SignalRecord, 0, len(s.signalOrder))
	for _, id := range s.signalOrder {
		if rec, ok := s.signals[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Lights returns the active dynamic lights (excluding the moon) in index
// order, copied out from under the lock.
func (s *Scene) Lights() []DynamicLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DynamicLight(nil), s.lights.Active()...)
}

// Moon returns the persistent global light.
func (s *Scene) Moon() DynamicLight {
	return s.lights.Moon()
}

// GetStats returns a point-in-time summary of the scene.
func (s *Scene) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	green := 0
	for _, sig := range s.signals {
		if sig.Green {
			green++
		}
	}
	return Stats{
		AgentCount:  len(s.agents),
		SignalCount: len(s.signals),
		GreenCount:  green,
		LightCount:  s.lights.Count(),
		Step:        s.step,
		Reconciles:  s.reconciles,
	}
}
