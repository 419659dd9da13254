package scene_test

import (
	"testing"
	"time"

	"cityviz/internal/scene"
)

var gaitCfg = scene.GaitConfig{
	FrameDuration: 90 * time.Millisecond,
	FrameCount:    8,
	IdleFrame:     0,
}

// TestFrameCycles verifies the walk cycle advances one frame per duration and
// wraps around with no terminal state.
func TestFrameCycles(t *testing.T) {
	start := time.Now()

	cases := []struct {
		offset time.Duration
		want   int
	}{
		{0, 0},
		{89 * time.Millisecond, 0},
		{90 * time.Millisecond, 1},
		{3 * 90 * time.Millisecond, 3},
		{7 * 90 * time.Millisecond, 7},
		{8 * 90 * time.Millisecond, 0}, // wraps
		{19 * 90 * time.Millisecond, 3},
	}

	for _, c := range cases {
		got := scene.FrameAt(true, start, start.Add(c.offset), gaitCfg)
		if got != c.want {
			t.Errorf("frame at offset %v: got %d, want %d", c.offset, got, c.want)
		}
	}
}

// TestIdleShowsIdleFrame verifies idle records show the idle frame regardless
// of elapsed time.
func TestIdleShowsIdleFrame(t *testing.T) {
	start := time.Now()

	for _, offset := range []time.Duration{0, 90 * time.Millisecond, 5 * time.Second} {
		if got := scene.FrameAt(false, start, start.Add(offset), gaitCfg); got != gaitCfg.IdleFrame {
			t.Errorf("idle frame at offset %v: got %d, want %d", offset, got, gaitCfg.IdleFrame)
		}
	}
}

// TestClockSkewBeforeAnimStart verifies a now before animStart clamps to
// frame 0 instead of going negative.
func TestClockSkewBeforeAnimStart(t *testing.T) {
	start := time.Now()
	if got := scene.FrameAt(true, start, start.Add(-time.Second), gaitCfg); got != 0 {
		t.Errorf("frame before animStart: got %d, want 0", got)
	}
}

// TestDegenerateConfigFallsBackToIdle covers zero frame count or duration.
func TestDegenerateConfigFallsBackToIdle(t *testing.T) {
	start := time.Now()

	broken := gaitCfg
	broken.FrameCount = 0
	if got := scene.FrameAt(true, start, start.Add(time.Second), broken); got != broken.IdleFrame {
		t.Errorf("zero frame count: got %d, want idle frame", got)
	}

	broken = gaitCfg
	broken.FrameDuration = 0
	if got := scene.FrameAt(true, start, start.Add(time.Second), broken); got != broken.IdleFrame {
		t.Errorf("zero frame duration: got %d, want idle frame", got)
	}
}
