// Package sim is the I/O boundary to the authoritative traffic simulation.
// It issues snapshot reads over HTTP and decodes the wire format; it never
// interprets agent state beyond defaulting malformed fields.
package sim

import "math"

// Heading is a cardinal movement direction as reported by the simulation.
type Heading string

const (
	HeadingUp    Heading = "Up"
	HeadingDown  Heading = "Down"
	HeadingLeft  Heading = "Left"
	HeadingRight Heading = "Right"
)

// ParseHeading maps a wire string to a Heading. Unknown or missing values
// default to Right, matching the simulation's own fallback.
func ParseHeading(s string) Heading {
	switch Heading(s) {
	case HeadingUp, HeadingDown, HeadingLeft, HeadingRight:
		return Heading(s)
	default:
		return HeadingRight
	}
}

// Angle returns the rotation about the vertical axis for this heading,
// in radians within (-pi, pi].
func (h Heading) Angle() float64 {
	switch h {
	case HeadingUp:
		return math.Pi / 2
	case HeadingLeft:
		return math.Pi
	case HeadingDown:
		return -math.Pi / 2
	default: // Right
		return 0
	}
}

// AgentState is one agent's authoritative state in a snapshot.
// Field names mirror the simulation's JSON ("dirActual"/"nextDir").
type AgentState struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Dir     string  `json:"dirActual"`
	NextDir string  `json:"nextDir"`
}

// Heading returns the direction the agent is currently moving along.
func (a AgentState) Heading() Heading {
	return ParseHeading(a.Dir)
}

// NextHeading returns the direction of the agent's upcoming move. When the
// simulation omits it, the current heading is used.
func (a AgentState) NextHeading() Heading {
	if a.NextDir == "" {
		return a.Heading()
	}
	return ParseHeading(a.NextDir)
}

// LightState is one traffic signal's phase in a snapshot.
type LightState struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Green bool    `json:"state"`
}

// StaticProp is an element of a static layer: an obstacle, destination or
// road tile. Fetched once at startup, never reconciled.
type StaticProp struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"` // degrees about the vertical axis
	IsTree   bool    `json:"is_tree"`  // obstacle variant flag
}

// Snapshot is one polled report of authoritative agent and signal state.
type Snapshot struct {
	Step   int
	Agents []AgentState
	Lights []LightState
}

// StaticLayers are the one-shot world layers fetched before the first poll.
type StaticLayers struct {
	Obstacles    []StaticProp
	Destinations []StaticProp
	Roads        []StaticProp
}
