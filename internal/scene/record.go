package scene

import "time"

// PositionTween is an in-flight interpolation between two positions.
// Origin is the position that was being DISPLAYED when the tween started,
// not necessarily the previous authoritative value; that choice is what keeps
// overlapping updates continuous on screen.
type PositionTween struct {
	Origin Vec3
	Target Vec3
	Start  time.Time
}

// RotationTween is an in-flight turn. Target may lie outside (-pi, pi]: it is
// always Origin plus a shortest-path delta, and is normalized on commit.
type RotationTween struct {
	Origin float64
	Target float64
	Start  time.Time
}

// AgentRecord is the local mutable state for one live agent. A nil tween
// pointer means that axis is settled; the displayed value then equals the
// committed one. Records are owned by the Scene and only ever mutated under
// its lock.
type AgentRecord struct {
	ID string

	// Authoritative is the last position reported by the simulation. Once a
	// position tween commits, its target becomes the new authoritative value.
	Authoritative Vec3
	Pos           *PositionTween

	// CommittedHeading is the angle the agent visually faces when no turn is
	// in progress. It only advances when a rotation tween completes, never
	// mid-tween. PendingHeading is the angle the agent is turning toward; the
	// model turns to face its next move before executing it.
	CommittedHeading float64
	PendingHeading   float64
	Rot              *RotationTween

	// Moving is recomputed at each reconciliation: true when the planar
	// displacement of the current position tween exceeds the move epsilon.
	Moving    bool
	AnimStart time.Time

	// Variant is a cosmetic attribute chosen once at creation and stable for
	// the agent's lifetime.
	Variant int
}

// Settled reports whether the record has no active position interpolation.
func (r *AgentRecord) Settled() bool {
	return r.Pos == nil
}

// Turning reports whether a rotation tween is in progress.
func (r *AgentRecord) Turning() bool {
	return r.Rot != nil
}

// SignalRecord is the local state for one traffic signal. LightIndex
// references the LightManager entry for this signal and is non-zero only
// while the signal is green (index 0 is the persistent global light and is
// never assigned to a signal).
type SignalRecord struct {
	ID         string
	Position   Vec3
	Green      bool
	LightIndex int
}

// AgentTransform is what the engine hands the host renderer for one agent on
// one frame: a translation, a rotation about the vertical axis, a gait frame
// selector and a lighting-uniform bundle.
type AgentTransform struct {
	ID          string           `json:"id"`
	Translation Vec3             `json:"translation"`
	Rotation    float64          `json:"rotation"`
	Frame       int              `json:"frame"`
	Variant     int              `json:"variant"`
	Moving      bool             `json:"moving"`
	Lighting    LightingUniforms `json:"lighting"`
}
