package simd

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"cityviz/internal/sim"
)

// car is one simulated vehicle. Cars follow the road flow one cell per step,
// stop at red lights and despawn on reaching a destination.
type car struct {
	id      string
	x, z    int
	dir     sim.Heading
	nextDir sim.Heading
}

// light is one simulated traffic signal.
type light struct {
	id     string
	x, z   int
	green  bool
	period int
}

// World is the mutable mock simulation state. All methods are safe for
// concurrent use; the HTTP handlers call them directly.
type World struct {
	mu sync.Mutex

	cityMap *CityMap
	rng     *rand.Rand

	step      int
	maxCars   int
	idCounter int

	cars   map[string]*car
	lights []*light

	// static layers, built once from the map
	obstacles    []sim.StaticProp
	destinations []sim.StaticProp
	roads        []sim.StaticProp
}

// NewWorld builds a world over the given map. maxCars caps the live car
// count; seed makes runs reproducible.
func NewWorld(m *CityMap, maxCars int, seed int64) *World {
	w := &World{
		cityMap: m,
		rng:     rand.New(rand.NewSource(seed)),
		maxCars: maxCars,
		cars:    make(map[string]*car),
	}

	for x := 0; x < m.Width; x++ {
		for z := 0; z < m.Height; z++ {
			cell := m.At(x, z)
			id := w.nextID()
			fx, fz := float64(x), float64(z)

			switch cell.Kind {
			case CellLight:
				w.lights = append(w.lights, &light{
					id:     id,
					x:      x,
					z:      z,
					green:  cell.InitialGreen,
					period: cell.Period,
				})
			case CellObstacle:
				w.obstacles = append(w.obstacles, sim.StaticProp{
					ID: id, X: fx, Y: 1, Z: fz,
					Rotation: m.facadeRotation(x, z),
					IsTree:   cell.IsTree,
				})
			case CellDestination:
				w.destinations = append(w.destinations, sim.StaticProp{
					ID: id, X: fx, Y: 1, Z: fz,
					Rotation: m.facadeRotation(x, z) + 180,
				})
			case CellRoad:
				w.roads = append(w.roads, sim.StaticProp{ID: id, X: fx, Y: 1, Z: fz})
			}
		}
	}

	return w
}

func (w *World) nextID() string {
	w.idCounter++
	return fmt.Sprintf("%d", w.idCounter)
}

// Reset clears cars and the step counter, keeping the static world.
func (w *World) Reset(maxCars int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.step = 0
	if maxCars > 0 {
		w.maxCars = maxCars
	}
	w.cars = make(map[string]*car)
	for _, l := range w.lights {
		l.green = w.cityMap.At(l.x, l.z).InitialGreen
	}
}

// Step advances the world one tick and returns the new step number.
func (w *World) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.step++

	for _, l := range w.lights {
		if w.step%l.period == 0 {
			l.green = !l.green
		}
	}

	w.moveCars()

	if w.step == 1 || w.step%w.cityMap.SpawnInterval == 0 {
		w.spawnCars()
	}

	return w.step
}

// moveCars advances every car one cell along the flow where possible.
// Iteration goes in id order so runs with the same seed replay identically.
func (w *World) moveCars() {
	ids := make([]string, 0, len(w.cars))
	for id := range w.cars {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	occupied := make(map[[2]int]bool, len(w.cars))
	for _, c := range w.cars {
		occupied[[2]int{c.x, c.z}] = true
	}

	for _, id := range ids {
		c := w.cars[id]

		// Arrived: despawn before moving.
		if w.cityMap.At(c.x, c.z).Kind == CellDestination {
			delete(w.cars, id)
			delete(occupied, [2]int{c.x, c.z})
			continue
		}

		c.dir = c.nextDir
		dx, dz := headingDelta(c.dir)
		nx, nz := c.x+dx, c.z+dz

		if !w.cityMap.Walkable(nx, nz) || occupied[[2]int{nx, nz}] {
			continue
		}

		// Red light on the target cell holds the car in place.
		if cell := w.cityMap.At(nx, nz); cell.Kind == CellLight {
			if l := w.lightAt(nx, nz); l != nil && !l.green {
				continue
			}
		}

		delete(occupied, [2]int{c.x, c.z})
		c.x, c.z = nx, nz
		occupied[[2]int{nx, nz}] = true

		c.nextDir = w.cityMap.FlowDir(nx, nz)
	}
}

func (w *World) lightAt(x, z int) *light {
	for _, l := range w.lights {
		if l.x == x && l.z == z {
			return l
		}
	}
	return nil
}

// spawnCars adds cars at free road cells in the grid corners, one per corner,
// up to the live cap.
func (w *World) spawnCars() {
	m := w.cityMap
	corners := [][2]int{
		{0, m.Height - 1},
		{m.Width - 1, m.Height - 1},
		{0, 0},
		{m.Width - 1, 0},
	}

	occupied := make(map[[2]int]bool, len(w.cars))
	for _, c := range w.cars {
		occupied[[2]int{c.x, c.z}] = true
	}

	for _, corner := range corners {
		if len(w.cars) >= w.maxCars {
			return
		}
		x, z := corner[0], corner[1]
		if m.At(x, z).Kind != CellRoad || occupied[[2]int{x, z}] {
			continue
		}

		dir := m.FlowDir(x, z)
		c := &car{
			id:      "car-" + w.nextID(),
			x:       x,
			z:       z,
			dir:     dir,
			nextDir: dir,
		}
		w.cars[c.id] = c
		occupied[[2]int{x, z}] = true
	}
}

// Cars returns the current car states in id order.
func (w *World) Cars() []sim.AgentState {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]sim.AgentState, 0, len(w.cars))
	for _, c := range w.cars {
		out = append(out, sim.AgentState{
			ID:      c.id,
			X:       float64(c.x),
			Y:       1,
			Z:       float64(c.z),
			Dir:     string(c.dir),
			NextDir: string(c.nextDir),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lights returns the current signal states.
func (w *World) Lights() []sim.LightState {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]sim.LightState, 0, len(w.lights))
	for _, l := range w.lights {
		out = append(out, sim.LightState{
			ID:    l.id,
			X:     float64(l.x),
			Y:     1,
			Z:     float64(l.z),
			Green: l.green,
		})
	}
	return out
}

// Obstacles returns the static obstacle layer.
func (w *World) Obstacles() []sim.StaticProp { return w.obstacles }

// Destinations returns the static destination layer.
func (w *World) Destinations() []sim.StaticProp { return w.destinations }

// Roads returns the static road layer.
func (w *World) Roads() []sim.StaticProp { return w.roads }

// CurrentStep returns the step counter without advancing.
func (w *World) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// CarCount returns the number of live cars.
func (w *World) CarCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.cars)
}
