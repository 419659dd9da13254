// Package simd is a self-contained stand-in for the authoritative traffic
// simulation. It serves the same HTTP surface the viewer polls, backed by a
// small grid world loaded from a YAML map, so the viewer can be developed and
// demoed without the real simulation running.
package simd

import (
	_ "embed"
	"fmt"
	"os"

	"cityviz/internal/sim"

	"gopkg.in/yaml.v3"
)

//go:embed maps/default.yaml
var defaultMapYAML []byte

// MapFile is the on-disk map description. The grid uses one character per
// cell: > < ^ v are directional roads, S and s are traffic lights (slow and
// fast cycle), # is an obstacle, T a tree, D a destination, . is empty.
type MapFile struct {
	Name string `yaml:"name"`

	// Grid rows, top row first. All rows must have equal length.
	Grid []string `yaml:"grid"`

	// LightCycles maps a light symbol to its toggle period in steps.
	LightCycles map[string]int `yaml:"light_cycles"`

	// SpawnInterval is the number of steps between spawn attempts.
	SpawnInterval int `yaml:"spawn_interval"`
}

// CellKind classifies one grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellRoad
	CellLight
	CellObstacle
	CellDestination
)

// Cell is one parsed grid cell.
type Cell struct {
	Kind CellKind

	// Dir is the traffic flow direction for roads; inferred from neighbors
	// for lights and destinations.
	Dir sim.Heading

	// Light fields
	Period       int
	InitialGreen bool

	// IsTree marks the tree variant of an obstacle.
	IsTree bool
}

// CityMap is the parsed static world.
type CityMap struct {
	Name          string
	Width, Height int
	SpawnInterval int

	// cells indexed [x][z], z growing upward (row 0 of the file is the top).
	cells [][]Cell
}

// LoadMap reads and parses a YAML map file, or the embedded default map when
// path is empty.
func LoadMap(path string) (*CityMap, error) {
	raw := defaultMapYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read map: %w", err)
		}
		raw = b
	}

	var mf MapFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	return parseMap(&mf)
}

func parseMap(mf *MapFile) (*CityMap, error) {
	if len(mf.Grid) == 0 {
		return nil, fmt.Errorf("map %q has no grid", mf.Name)
	}

	height := len(mf.Grid)
	width := len(mf.Grid[0])
	for i, row := range mf.Grid {
		if len(row) != width {
			return nil, fmt.Errorf("map %q: row %d has length %d, want %d", mf.Name, i, len(row), width)
		}
	}

	spawn := mf.SpawnInterval
	if spawn <= 0 {
		spawn = 10
	}

	m := &CityMap{
		Name:          mf.Name,
		Width:         width,
		Height:        height,
		SpawnInterval: spawn,
		cells:         make([][]Cell, width),
	}
	for x := range m.cells {
		m.cells[x] = make([]Cell, height)
	}

	for r, row := range mf.Grid {
		for c, ch := range row {
			// File rows go top to bottom; world z grows upward.
			z := height - r - 1
			cell := &m.cells[c][z]

			switch ch {
			case '>':
				cell.Kind, cell.Dir = CellRoad, sim.HeadingRight
			case '<':
				cell.Kind, cell.Dir = CellRoad, sim.HeadingLeft
			case '^':
				cell.Kind, cell.Dir = CellRoad, sim.HeadingUp
			case 'v':
				cell.Kind, cell.Dir = CellRoad, sim.HeadingDown
			case 'S', 's':
				cell.Kind = CellLight
				cell.InitialGreen = ch == 's'
				cell.Period = mf.LightCycles[string(ch)]
				if cell.Period <= 0 {
					cell.Period = 10
				}
			case '#':
				cell.Kind = CellObstacle
			case 'T':
				cell.Kind = CellObstacle
				cell.IsTree = true
			case 'D':
				cell.Kind = CellDestination
			case '.', ' ':
				cell.Kind = CellEmpty
			default:
				return nil, fmt.Errorf("map %q: unknown symbol %q at row %d col %d", mf.Name, string(ch), r, c)
			}
		}
	}

	m.inferDirections()
	return m, nil
}

// inferDirections assigns a flow direction to lights and destinations from
// the most common direction among adjacent roads, defaulting to Right.
func (m *CityMap) inferDirections() {
	for x := 0; x < m.Width; x++ {
		for z := 0; z < m.Height; z++ {
			cell := &m.cells[x][z]
			if cell.Kind != CellLight && cell.Kind != CellDestination {
				continue
			}

			counts := map[sim.Heading]int{}
			for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, nz := x+d[0], z+d[1]
				if !m.InBounds(nx, nz) {
					continue
				}
				n := m.cells[nx][nz]
				if n.Kind == CellRoad {
					counts[n.Dir]++
				}
			}

			// Fixed preference order breaks ties deterministically.
			best := sim.HeadingRight
			bestN := 0
			for _, h := range []sim.Heading{sim.HeadingRight, sim.HeadingLeft, sim.HeadingUp, sim.HeadingDown} {
				if counts[h] > bestN {
					best, bestN = h, counts[h]
				}
			}
			cell.Dir = best
		}
	}
}

// InBounds reports whether (x, z) lies on the grid.
func (m *CityMap) InBounds(x, z int) bool {
	return x >= 0 && x < m.Width && z >= 0 && z < m.Height
}

// At returns the cell at (x, z). Out-of-bounds positions read as empty.
func (m *CityMap) At(x, z int) Cell {
	if !m.InBounds(x, z) {
		return Cell{}
	}
	return m.cells[x][z]
}

// Walkable reports whether a car may occupy (x, z).
func (m *CityMap) Walkable(x, z int) bool {
	switch m.At(x, z).Kind {
	case CellRoad, CellLight, CellDestination:
		return true
	default:
		return false
	}
}

// FlowDir returns the traffic direction at (x, z), defaulting to Right off
// the road network.
func (m *CityMap) FlowDir(x, z int) sim.Heading {
	cell := m.At(x, z)
	if cell.Kind == CellEmpty || cell.Kind == CellObstacle {
		return sim.HeadingRight
	}
	return cell.Dir
}

// step vector per heading, in world coordinates (z grows upward).
func headingDelta(h sim.Heading) (int, int) {
	switch h {
	case sim.HeadingUp:
		return 0, 1
	case sim.HeadingDown:
		return 0, -1
	case sim.HeadingLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// facadeRotation orients an obstacle or destination toward the nearest road,
// checking below, above, right, left in that order. Degrees about the
// vertical axis.
func (m *CityMap) facadeRotation(x, z int) float64 {
	checks := []struct {
		dx, dz int
		angle  float64
	}{
		{0, -1, 0},
		{0, 1, 180},
		{1, 0, 270},
		{-1, 0, 90},
	}

	for _, c := range checks {
		if m.At(x+c.dx, z+c.dz).Kind == CellRoad {
			return c.angle
		}
	}
	return 0
}
