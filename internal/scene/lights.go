package scene

import "math"

// LightingUniforms is the per-object lighting bundle handed to the host
// renderer: ambient, diffuse and specular colors already blended with the
// nearest active dynamic light, if any.
type LightingUniforms struct {
	Ambient  [3]float64 `json:"ambient"`
	Diffuse  [3]float64 `json:"diffuse"`
	Specular [3]float64 `json:"specular"`
}

// DynamicLight is an ephemeral point light keyed to a green traffic signal.
// Index 0 is reserved for the persistent global moon light; signal lights get
// sequential indices starting at 1, assigned in snapshot order so they are
// reproducible across runs with identical input.
type DynamicLight struct {
	Index     int        `json:"index"`
	Position  Vec3       `json:"position"`
	Color     [3]float64 `json:"color"`
	Intensity float64    `json:"intensity"`
}

// LightConfig tunes dynamic signal lighting.
type LightConfig struct {
	Radius float64 // reach of a signal light; falloff is linear within it
	Offset float64 // vertical offset of the light above the signal prop
}

// Fixed light palette. The moon is a cold dim ambient source; signal lights
// are warm green, matching the signal prop's lit state.
var (
	moonColor   = [3]float64{0.35, 0.38, 0.5}
	signalColor = [3]float64{0.2, 0.95, 0.3}

	baseAmbient  = [3]float64{0.25, 0.25, 0.3}
	baseDiffuse  = [3]float64{0.7, 0.7, 0.72}
	baseSpecular = [3]float64{0.4, 0.4, 0.4}
)

// LightManager derives the active set of point lights from the signal table.
// The dynamic set is regenerated wholesale on every reconciliation pass (no
// incremental diffing); only the global moon light survives across passes.
type LightManager struct {
	cfg     LightConfig
	moon    DynamicLight
	dynamic []DynamicLight
}

// NewLightManager creates a manager holding only the persistent moon light.
func NewLightManager(cfg LightConfig) *LightManager {
	return &LightManager{
		cfg: cfg,
		moon: DynamicLight{
			Index:     0,
			Position:  Vec3{X: 0, Y: 40, Z: 0},
			Color:     moonColor,
			Intensity: 0.6,
		},
	}
}

// Rebuild discards every dynamic light from the previous pass and creates one
// light per green signal, at a fixed vertical offset above the signal prop.
// Records are visited in the order given, and each green signal has its
// assigned index written back to its LightIndex handle; red signals get 0.
func (lm *LightManager) Rebuild(signals []*SignalRecord) {
	lm.dynamic = lm.dynamic[:0]

	next := 1
	for _, sig := range signals {
		if !sig.Green {
			sig.LightIndex = 0
			continue
		}
		light := DynamicLight{
			Index:     next,
			Position:  Vec3{X: sig.Position.X, Y: sig.Position.Y + lm.cfg.Offset, Z: sig.Position.Z},
			Color:     signalColor,
			Intensity: 1.0,
		}
		sig.LightIndex = next
		lm.dynamic = append(lm.dynamic, light)
		next++
	}
}

// UniformsAt computes the lighting bundle for an object at the given
// position: the nearest active dynamic light within the configured radius is
// blended into the base palette with a linear falloff max(0, 1-d/radius); if
// none is in reach, only the persistent global light contributes.
func (lm *LightManager) UniformsAt(p Vec3) LightingUniforms {
	u := LightingUniforms{
		Ambient:  baseAmbient,
		Diffuse:  baseDiffuse,
		Specular: baseSpecular,
	}

	nearest, dist := lm.nearest(p)
	if nearest == nil {
		return u
	}

	falloff := 1 - dist/lm.cfg.Radius
	if falloff <= 0 {
		return u
	}

	w := falloff * nearest.Intensity
	for i := 0; i < 3; i++ {
		u.Ambient[i] += nearest.Color[i] * w * 0.3
		u.Diffuse[i] = u.Diffuse[i]*(1-w) + nearest.Color[i]*w
	}
	return u
}

// nearest returns the closest dynamic light within the radius, or nil.
// The moon is global and never competes with signal lights here.
func (lm *LightManager) nearest(p Vec3) (*DynamicLight, float64) {
	var best *DynamicLight
	bestDist := math.MaxFloat64

	for i := range lm.dynamic {
		d := lm.dynamic[i].Position.PlanarDistance(p)
		if d <= lm.cfg.Radius && d < bestDist {
			best = &lm.dynamic[i]
			bestDist = d
		}
	}
	return best, bestDist
}

// Moon returns the persistent global light.
func (lm *LightManager) Moon() DynamicLight {
	return lm.moon
}

// Active returns the current dynamic lights in index order, excluding the
// moon. The slice is reused across rebuilds; callers must not retain it.
func (lm *LightManager) Active() []DynamicLight {
	return lm.dynamic
}

// Count returns the number of dynamic signal lights currently active.
func (lm *LightManager) Count() int {
	return len(lm.dynamic)
}
