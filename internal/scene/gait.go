package scene

import "time"

// GaitConfig describes the walk cycle: a fixed number of frames shown at a
// fixed per-frame duration, looping forever while the agent moves.
type GaitConfig struct {
	FrameDuration time.Duration
	FrameCount    int
	IdleFrame     int
}

// FrameAt selects the gait frame for a record at the given time. Idle records
// show the designated idle frame immediately; moving records cycle from
// frame 0 starting at animStart. The sequence has no terminal state: it loops
// and restarts cleanly on every idle->moving transition (the Scene resets
// AnimStart at that transition, so the first step always begins at frame 0).
func FrameAt(moving bool, animStart, now time.Time, cfg GaitConfig) int {
	if !moving {
		return cfg.IdleFrame
	}
	if cfg.FrameCount <= 0 || cfg.FrameDuration <= 0 {
		return cfg.IdleFrame
	}

	elapsed := now.Sub(animStart)
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed/cfg.FrameDuration) % cfg.FrameCount
}
