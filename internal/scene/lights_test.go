package scene_test

import (
	"testing"

	"cityviz/internal/scene"
)

func testLightManager() *scene.LightManager {
	return scene.NewLightManager(scene.LightConfig{Radius: 6, Offset: 2.5})
}

// TestMoonPersistsAcrossRebuilds verifies the global light keeps index 0 and
// survives any number of rebuild passes.
func TestMoonPersistsAcrossRebuilds(t *testing.T) {
	lm := testLightManager()

	moon := lm.Moon()
	if moon.Index != 0 {
		t.Errorf("moon index: got %d, want 0", moon.Index)
	}

	lm.Rebuild([]*scene.SignalRecord{{ID: "l1", Green: true}})
	lm.Rebuild(nil)

	if got := lm.Moon(); got != moon {
		t.Errorf("moon changed across rebuilds: got %+v, want %+v", got, moon)
	}
}

// TestRebuildAssignsSequentialIndices verifies green signals get indices from
// 1 in the given order and red signals get their handle cleared.
func TestRebuildAssignsSequentialIndices(t *testing.T) {
	lm := testLightManager()

	sigs := []*scene.SignalRecord{
		{ID: "l1", Position: scene.Vec3{X: 0}, Green: true, LightIndex: 9},
		{ID: "l2", Position: scene.Vec3{X: 5}, Green: false, LightIndex: 9},
		{ID: "l3", Position: scene.Vec3{X: 10}, Green: true},
	}
	lm.Rebuild(sigs)

	if sigs[0].LightIndex != 1 || sigs[1].LightIndex != 0 || sigs[2].LightIndex != 2 {
		t.Errorf("signal handles: got %d, %d, %d, want 1, 0, 2",
			sigs[0].LightIndex, sigs[1].LightIndex, sigs[2].LightIndex)
	}

	active := lm.Active()
	if len(active) != 2 {
		t.Fatalf("active lights: got %d, want 2", len(active))
	}
	if active[0].Position.Y != 2.5 {
		t.Errorf("light offset: got Y=%f, want 2.5", active[0].Position.Y)
	}
	if lm.Count() != 2 {
		t.Errorf("Count: got %d, want 2", lm.Count())
	}
}

// TestUniformsFalloff verifies the linear falloff: full effect at the light,
// fading to the base palette at the radius edge and beyond.
func TestUniformsFalloff(t *testing.T) {
	lm := testLightManager()
	lm.Rebuild([]*scene.SignalRecord{
		{ID: "l1", Position: scene.Vec3{X: 0, Z: 0}, Green: true},
	})

	base := testLightManager().UniformsAt(scene.Vec3{X: 100})

	atLight := lm.UniformsAt(scene.Vec3{X: 0, Z: 0})
	if atLight.Diffuse == base.Diffuse {
		t.Error("diffuse unchanged directly under the light")
	}
	// The signal is green; the green channel must dominate the shift.
	if atLight.Diffuse[1] <= base.Diffuse[1] {
		t.Errorf("green diffuse at the light: got %f, want > %f", atLight.Diffuse[1], base.Diffuse[1])
	}

	near := lm.UniformsAt(scene.Vec3{X: 2})
	far := lm.UniformsAt(scene.Vec3{X: 5})
	if near.Diffuse[1] <= far.Diffuse[1] {
		t.Errorf("falloff not monotone: near green %f <= far green %f",
			near.Diffuse[1], far.Diffuse[1])
	}

	outside := lm.UniformsAt(scene.Vec3{X: 7})
	if outside != base {
		t.Errorf("outside the radius: got %+v, want base palette", outside)
	}

	if atLight.Specular != base.Specular {
		t.Error("specular should not be touched by signal lights")
	}
}

// TestUniformsNearestWins verifies only the closest in-range light
// contributes.
func TestUniformsNearestWins(t *testing.T) {
	lm := testLightManager()
	lm.Rebuild([]*scene.SignalRecord{
		{ID: "l1", Position: scene.Vec3{X: 0}, Green: true},
		{ID: "l2", Position: scene.Vec3{X: 4}, Green: true},
	})

	// A point at X=1 is 1 from l1 and 3 from l2. The blend must match a
	// single light at distance 1.
	solo := testLightManager()
	solo.Rebuild([]*scene.SignalRecord{{ID: "l1", Position: scene.Vec3{X: 0}, Green: true}})

	got := lm.UniformsAt(scene.Vec3{X: 1})
	want := solo.UniformsAt(scene.Vec3{X: 1})
	if got != want {
		t.Errorf("nearest-light blend: got %+v, want %+v", got, want)
	}
}

// TestPlanarDistanceIgnoresHeight verifies the vertical axis does not affect
// light reach; the hop bounce must never flicker the lighting.
func TestPlanarDistanceIgnoresHeight(t *testing.T) {
	lm := testLightManager()
	lm.Rebuild([]*scene.SignalRecord{
		{ID: "l1", Position: scene.Vec3{X: 0}, Green: true},
	})

	grounded := lm.UniformsAt(scene.Vec3{X: 1, Y: 0})
	hopping := lm.UniformsAt(scene.Vec3{X: 1, Y: 0.18})
	if grounded != hopping {
		t.Error("lighting changed with height; falloff must be planar")
	}
}
