package scene

import (
	"math"
	"time"
)

// MotionConfig is the subset of scene tuning the interpolator needs.
type MotionConfig struct {
	PositionDuration time.Duration
	RotationDuration time.Duration
	HopHeight        float64
}

// PositionAt computes the displayed position for a record at the given time.
// It is a pure function: completion is reported through done and committed by
// the caller (the Scene, under its lock), never here.
//
// While a tween is active the interpolation parameter t is clamped to [0,1],
// so it is monotonically non-decreasing within the tween and the displayed
// value never extrapolates past the target. A moving record additionally gets
// a sin(pi*t)*hopHeight vertical bounce: zero at both endpoints, maximal at
// the midpoint.
func PositionAt(r *AgentRecord, now time.Time, cfg MotionConfig) (pos Vec3, done bool) {
	if r.Pos == nil {
		return r.Authoritative, false
	}

	t := tweenProgress(now, r.Pos.Start, cfg.PositionDuration)
	pos = Lerp(r.Pos.Origin, r.Pos.Target, t)

	if r.Moving {
		pos.Y += math.Sin(math.Pi*t) * cfg.HopHeight
	}

	return pos, t >= 1
}

// RotationAt computes the displayed rotation angle for a record at the given
// time. Turns use an ease-in-out cubic remap so they start and finish softly.
// Like PositionAt it never mutates the record; the caller commits completion.
func RotationAt(r *AgentRecord, now time.Time, cfg MotionConfig) (angle float64, done bool) {
	if r.Rot == nil {
		return r.CommittedHeading, false
	}

	t := easeInOutCubic(tweenProgress(now, r.Rot.Start, cfg.RotationDuration))
	angle = r.Rot.Origin + (r.Rot.Target-r.Rot.Origin)*t

	return angle, t >= 1
}

// tweenProgress returns elapsed/duration clamped to [0,1]. A non-positive
// duration counts as already complete rather than dividing by zero.
func tweenProgress(now, start time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	t := float64(now.Sub(start)) / float64(duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// easeInOutCubic remaps linear progress to a soft start and stop.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 1 + u*u*u/2
}

// ShortestAngleDelta returns the smallest rotation that takes from to to,
// normalized to (-pi, pi]. Applying it from any start angle yields the target
// modulo 2*pi.
func ShortestAngleDelta(from, to float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
