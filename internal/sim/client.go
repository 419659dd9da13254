package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cityviz/internal/config"

	"golang.org/x/time/rate"
)

// Client polls the simulation HTTP API. It is a pure I/O boundary: every call
// maps to one or more requests and returns decoded wire structs. The caller
// owns retry policy; a failed call is simply reported.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a snapshot client for the given simulation endpoint.
func NewClient(cfg config.SimConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.PollRate), cfg.PollBurst),
	}
}

// Init configures world dimensions and agent count on the simulation.
// Must be called once before the first poll.
func (c *Client) Init(ctx context.Context, agents, width, height int) error {
	body, _ := json.Marshal(map[string]int{
		"NAgents": agents,
		"width":   width,
		"height":  height,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/init", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("init request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("init: simulation returned %s", resp.Status)
	}
	return nil
}

// Step advances the simulation one tick and returns the resulting step number.
func (c *Client) Step(ctx context.Context) (int, error) {
	var out struct {
		CurrentStep int `json:"currentStep"`
	}
	if err := c.getJSON(ctx, "/update", &out); err != nil {
		return 0, err
	}
	return out.CurrentStep, nil
}

// positionsEnvelope is the common {"positions": [...]} response wrapper.
type positionsEnvelope[T any] struct {
	Positions []T `json:"positions"`
}

// Agents returns the current agent list.
func (c *Client) Agents(ctx context.Context) ([]AgentState, error) {
	var out positionsEnvelope[AgentState]
	if err := c.getJSON(ctx, "/getCars", &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Lights returns the current traffic signal list.
func (c *Client) Lights(ctx context.Context) ([]LightState, error) {
	var out positionsEnvelope[LightState]
	if err := c.getJSON(ctx, "/getLights", &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Obstacles returns the static obstacle layer.
func (c *Client) Obstacles(ctx context.Context) ([]StaticProp, error) {
	var out positionsEnvelope[StaticProp]
	if err := c.getJSON(ctx, "/getObstacles", &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Destinations returns the static destination layer.
func (c *Client) Destinations(ctx context.Context) ([]StaticProp, error) {
	var out positionsEnvelope[StaticProp]
	if err := c.getJSON(ctx, "/getDestination", &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Roads returns the static road layer.
func (c *Client) Roads(ctx context.Context) ([]StaticProp, error) {
	var out positionsEnvelope[StaticProp]
	if err := c.getJSON(ctx, "/getRoads", &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Static fetches all one-shot world layers.
func (c *Client) Static(ctx context.Context) (*StaticLayers, error) {
	obstacles, err := c.Obstacles(ctx)
	if err != nil {
		return nil, err
	}
	destinations, err := c.Destinations(ctx)
	if err != nil {
		return nil, err
	}
	roads, err := c.Roads(ctx)
	if err != nil {
		return nil, err
	}
	return &StaticLayers{
		Obstacles:    obstacles,
		Destinations: destinations,
		Roads:        roads,
	}, nil
}

// Snapshot advances the simulation one tick and reads the resulting agent and
// signal state. The poll limiter paces callers so a misconfigured scheduler
// cannot hammer the simulation.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	started := time.Now()

	step, err := c.Step(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := c.Agents(ctx)
	if err != nil {
		return nil, err
	}
	lights, err := c.Lights(ctx)
	if err != nil {
		return nil, err
	}

	ObserveSnapshotLatency(time.Since(started))

	return &Snapshot{Step: step, Agents: agents, Lights: lights}, nil
}

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: simulation returned %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

// drain consumes and closes a response body so the connection can be reused.
func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body) //nolint:errcheck
	body.Close()
}
