package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cityviz/internal/api"
	"cityviz/internal/scene"
	"cityviz/internal/sim"
)

// fakeScene is a canned SceneInterface for router tests.
type fakeScene struct{}

func (fakeScene) Transforms(now time.Time) []scene.AgentTransform {
	return []scene.AgentTransform{
		{ID: "a", Translation: scene.Vec3{X: 1, Z: 2}, Rotation: 0.5, Frame: 3, Variant: 1, Moving: true},
	}
}

func (fakeScene) Signals() []scene.SignalRecord {
	return []scene.SignalRecord{
		{ID: "l1", Position: scene.Vec3{X: 5}, Green: true, LightIndex: 1},
		{ID: "l2", Position: scene.Vec3{X: 9}, Green: false},
	}
}

func (fakeScene) Lights() []scene.DynamicLight {
	return []scene.DynamicLight{{Index: 1, Position: scene.Vec3{X: 5, Y: 2.5}}}
}

func (fakeScene) Moon() scene.DynamicLight {
	return scene.DynamicLight{Index: 0, Position: scene.Vec3{Y: 40}}
}

func (fakeScene) Static() sim.StaticLayers { return sim.StaticLayers{} }

func (fakeScene) Settled(id string) (bool, bool) {
	if id == "a" {
		return true, true
	}
	return false, false
}

func (fakeScene) GetStats() scene.Stats {
	return scene.Stats{AgentCount: 1, SignalCount: 2, GreenCount: 1, LightCount: 1, Step: 12}
}

// fakeScheduler is a canned SchedulerInterface.
type fakeScheduler struct{}

func (fakeScheduler) Progress() float64        { return 0.25 }
func (fakeScheduler) State() scene.CycleState  { return scene.CycleRunning }
func (fakeScheduler) GetStats() map[string]uint64 {
	return map[string]uint64{"refreshes": 4, "failures": 1}
}

func testRouter(t *testing.T) *httptest.Server {
	t.Helper()

	router := api.NewRouter(api.RouterConfig{
		Scene:     fakeScene{},
		Scheduler: fakeScheduler{},
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Minute,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestFrameEndpoint(t *testing.T) {
	ts := testRouter(t)

	var frame struct {
		Agents []struct {
			ID       string  `json:"id"`
			Rotation float64 `json:"rotation"`
			Frame    int     `json:"frame"`
		} `json:"agents"`
		Signals []struct {
			ID    string `json:"id"`
			Green bool   `json:"green"`
		} `json:"signals"`
		Lights []struct {
			Index int `json:"index"`
		} `json:"lights"`
		Moon struct {
			Index int `json:"index"`
		} `json:"moon"`
	}
	resp := getJSON(t, ts.URL+"/api/frame", &frame)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if len(frame.Agents) != 1 || frame.Agents[0].ID != "a" {
		t.Errorf("agents: got %+v", frame.Agents)
	}
	if frame.Agents[0].Frame != 3 {
		t.Errorf("gait frame: got %d, want 3", frame.Agents[0].Frame)
	}
	if len(frame.Signals) != 2 || !frame.Signals[0].Green {
		t.Errorf("signals: got %+v", frame.Signals)
	}
	if len(frame.Lights) != 1 || frame.Lights[0].Index != 1 {
		t.Errorf("lights: got %+v", frame.Lights)
	}
	if frame.Moon.Index != 0 {
		t.Errorf("moon index: got %d, want 0", frame.Moon.Index)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := testRouter(t)

	var stats struct {
		Scene struct {
			AgentCount int `json:"agentCount"`
			Step       int `json:"step"`
		} `json:"scene"`
		CycleProgress float64           `json:"cycleProgress"`
		CycleState    string            `json:"cycleState"`
		Refreshes     map[string]uint64 `json:"refreshes"`
	}
	resp := getJSON(t, ts.URL+"/api/stats", &stats)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if stats.Scene.AgentCount != 1 || stats.Scene.Step != 12 {
		t.Errorf("scene stats: got %+v", stats.Scene)
	}
	if stats.CycleProgress != 0.25 || stats.CycleState != "running" {
		t.Errorf("cycle: got %f/%s, want 0.25/running", stats.CycleProgress, stats.CycleState)
	}
	if stats.Refreshes["failures"] != 1 {
		t.Errorf("refresh stats: got %v", stats.Refreshes)
	}
}

func TestSettledEndpoint(t *testing.T) {
	ts := testRouter(t)

	var out struct {
		ID      string `json:"id"`
		Settled bool   `json:"settled"`
	}
	resp := getJSON(t, ts.URL+"/api/agents/a/settled", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if out.ID != "a" || !out.Settled {
		t.Errorf("settled payload: got %+v", out)
	}

	resp = getJSON(t, ts.URL+"/api/agents/nope/settled", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown agent status: got %d, want 404", resp.StatusCode)
	}
}

func TestPreviewDisabledWithoutPainter(t *testing.T) {
	ts := testRouter(t)

	resp := getJSON(t, ts.URL+"/preview.png", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("preview without painter: got %d, want 404", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := testRouter(t)

	resp := getJSON(t, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status: got %d, want 200", resp.StatusCode)
	}
}

// TestRateLimitRejects verifies the limiter returns 429 once the burst is
// spent.
func TestRateLimitRejects(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Scene:     fakeScene{},
		Scheduler: fakeScheduler{},
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 0.001,
			Burst:             2,
			CleanupInterval:   time.Minute,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/stats")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("within burst: got %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("over burst: got %d, want 429", codes[2])
	}
}
