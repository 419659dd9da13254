// Package viz assembles per-frame output for renderer hosts: a JSON-friendly
// frame bundle for the websocket feed, and a top-down debug painter that
// stands in for the full 3D renderer during development.
package viz

import (
	"time"

	"cityviz/internal/scene"
	"cityviz/internal/sim"
)

// SceneSource is the read surface viz needs from the scene engine. Narrow by
// design so tests and the API layer can substitute fakes.
type SceneSource interface {
	Transforms(now time.Time) []scene.AgentTransform
	Signals() []scene.SignalRecord
	Lights() []scene.DynamicLight
	Moon() scene.DynamicLight
	Static() sim.StaticLayers
}

// Frame is everything a renderer host needs for one display frame: one draw
// transform per visible agent, signal phases, and the active light set.
type Frame struct {
	Time    time.Time             `json:"time"`
	Agents  []scene.AgentTransform `json:"agents"`
	Signals []SignalView          `json:"signals"`
	Lights  []scene.DynamicLight  `json:"lights"`
	Moon    scene.DynamicLight    `json:"moon"`
}

// SignalView is the renderer-facing projection of a signal record.
type SignalView struct {
	ID         string     `json:"id"`
	Position   scene.Vec3 `json:"position"`
	Green      bool       `json:"green"`
	LightIndex int        `json:"lightIndex,omitempty"`
}

// BuildFrame snapshots the scene into a frame at the given time. Completed
// tweens commit as a side effect of reading the transforms, same as any other
// draw call.
func BuildFrame(sc SceneSource, now time.Time) Frame {
	signals := sc.Signals()
	views := make([]SignalView, len(signals))
	for i, sig := range signals {
		views[i] = SignalView{
			ID:         sig.ID,
			Position:   sig.Position,
			Green:      sig.Green,
			LightIndex: sig.LightIndex,
		}
	}

	return Frame{
		Time:    now,
		Agents:  sc.Transforms(now),
		Signals: views,
		Lights:  sc.Lights(),
		Moon:    sc.Moon(),
	}
}
