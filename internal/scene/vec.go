// Package scene is the agent state reconciliation and motion-interpolation
// engine. It merges low-frequency simulation snapshots into a local agent
// table and produces smooth per-frame draw transforms: position and rotation
// tweening with commit-on-completion, gait frame selection, and dynamic
// signal lighting. Matrix algebra, meshes and GPU resources live in the host
// renderer; this package only deals in translations, angles and frame indices.
package scene

import "math"

// Vec3 is a point or displacement in world space. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// PlanarDistance returns the distance between v and o projected onto the
// ground plane. Movement classification and the big-jump guard both ignore
// the vertical axis so the gait bounce never counts as displacement.
func (v Vec3) PlanarDistance(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return math.Hypot(dx, dz)
}

// Lerp interpolates componentwise from a to b. t is expected in [0,1].
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}
