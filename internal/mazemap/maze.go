package mazemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gravitas-games/mazenav/pkg/grid"
	"gopkg.in/yaml.v3"
)

// Maze is a named, validated grid. Its Grid is never mutated after
// ParseMaze returns, so searches may share it.
type Maze struct {
	ID          string
	Name        string
	Grid        *grid.Grid
	Fingerprint string // changes whenever the source file changes
}

// mazeFile is the on-disk YAML layout of a maze
type mazeFile struct {
	ID     string     `yaml:"id"`
	Name   string     `yaml:"name"`
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	Walls  []wallSpec `yaml:"walls"`
}

// wallSpec places a wall on one side of a cell. Unless OneWay is set the
// neighbor's facing side is walled too.
type wallSpec struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Side   string `yaml:"side"`
	OneWay bool   `yaml:"one_way"`
}

// ParseMaze builds a maze from its YAML definition. Boundary walls are
// implied; only interior walls need listing.
func ParseMaze(data []byte) (*Maze, error) {
	var f mazeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse maze: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("maze is missing an id")
	}
	// ':' separates the fields of cache keys
	if strings.Contains(f.ID, ":") {
		return nil, fmt.Errorf("maze id %q must not contain ':'", f.ID)
	}

	g, err := grid.New(f.Width, f.Height)
	if err != nil {
		return nil, fmt.Errorf("maze %s: %w", f.ID, err)
	}

	for i, w := range f.Walls {
		side, err := grid.ParseDirection(w.Side)
		if err != nil {
			return nil, fmt.Errorf("maze %s wall %d: %w", f.ID, i, err)
		}
		at := grid.Coord{X: w.X, Y: w.Y}
		if w.OneWay {
			err = g.SetWall(at, side, true)
		} else {
			err = g.AddWall(at, side)
		}
		if err != nil {
			return nil, fmt.Errorf("maze %s wall %d: %w", f.ID, i, err)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("maze %s: %w", f.ID, err)
	}

	name := f.Name
	if name == "" {
		name = f.ID
	}

	return &Maze{
		ID:          f.ID,
		Name:        name,
		Grid:        g,
		Fingerprint: strconv.FormatUint(xxhash.Sum64(data), 16),
	}, nil
}

// Contains reports whether c is a cell of the maze.
func (m *Maze) Contains(c grid.Coord) bool {
	return m.Grid.InBounds(c)
}
