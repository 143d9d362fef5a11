// Package grid models rectangular mazes: cells addressed by Coord whose
// four sides may each carry a wall.
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	ErrInvalidSize = errors.New("invalid grid size")
	ErrMalformed   = errors.New("malformed grid")
)

// Wall is a bitmask of walled sides.
type Wall uint8

const (
	WallUp Wall = 1 << iota
	WallDown
	WallLeft
	WallRight
)

// WallFor returns the bit for side d.
func WallFor(d Direction) Wall { return Wall(1) << d }

// Cell is a read-only view of one grid cell.
type Cell struct {
	pos   Coord
	walls Wall
}

// NewCell returns a cell at pos with the given walls, for Grid
// implementations outside this package.
func NewCell(pos Coord, walls Wall) Cell { return Cell{pos: pos, walls: walls} }

func (c Cell) Position() Coord { return c.pos }

// HasWall reports whether side d of this cell is walled.
func (c Cell) HasWall(d Direction) bool { return c.walls&WallFor(d) != 0 }

// Walls returns the raw wall mask.
func (c Cell) Walls() Wall { return c.walls }

// MaxCells bounds width*height. Searches index cells with int32.
const MaxCells = 1 << 24

// Grid is a Width x Height rectangle of cells stored row-major.
// A grid must not be mutated while a search reads it.
type Grid struct {
	width  int
	height int
	walls  []Wall
}

// New returns a grid with every boundary-facing side walled and no
// internal walls.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width > MaxCells/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrInvalidSize, width, height, MaxCells)
	}
	g := &Grid{
		width:  width,
		height: height,
		walls:  make([]Wall, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := Coord{x, y}
			for _, d := range Directions {
				if !g.InBounds(c.Step(d)) {
					g.walls[g.Index(c)] |= WallFor(d)
				}
			}
		}
	}
	return g, nil
}

// MustNew is New for fixed sizes known to be valid.
func MustNew(width, height int) *Grid {
	g, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return g
}

// Size returns width and height.
func (g *Grid) Size() (int, int) { return g.width, g.height }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.walls) }

// InBounds reports whether c addresses a cell of g.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Index flattens c. The caller must check bounds first.
func (g *Grid) Index(c Coord) int { return c.Y*g.width + c.X }

// CoordOf is the inverse of Index.
func (g *Grid) CoordOf(i int) Coord { return Coord{i % g.width, i / g.width} }

// CellAt returns the cell at c.
func (g *Grid) CellAt(c Coord) (Cell, error) {
	if !g.InBounds(c) {
		return Cell{}, g.boundsError(c)
	}
	return Cell{pos: c, walls: g.walls[g.Index(c)]}, nil
}

// SetWall sets or clears side d of cell c only. The neighbor's facing side
// is left alone, so this can produce one-way walls.
func (g *Grid) SetWall(c Coord, d Direction, on bool) error {
	if !g.InBounds(c) {
		return g.boundsError(c)
	}
	i := g.Index(c)
	if on {
		g.walls[i] |= WallFor(d)
	} else {
		g.walls[i] &^= WallFor(d)
	}
	return nil
}

// AddWall walls side d of c and the facing side of its neighbor, if any.
func (g *Grid) AddWall(c Coord, d Direction) error {
	return g.setBoth(c, d, true)
}

// RemoveWall opens side d of c and the facing side of its neighbor. The
// neighbor must exist.
func (g *Grid) RemoveWall(c Coord, d Direction) error {
	if !g.InBounds(c.Step(d)) {
		return fmt.Errorf("open %s side of %s: %w", d, c, g.boundsError(c.Step(d)))
	}
	return g.setBoth(c, d, false)
}

func (g *Grid) setBoth(c Coord, d Direction, on bool) error {
	if err := g.SetWall(c, d, on); err != nil {
		return err
	}
	if n := c.Step(d); g.InBounds(n) {
		return g.SetWall(n, d.Opposite(), on)
	}
	return nil
}

// Validate reports any boundary side that is open, since a search would
// step off the grid through it.
func (g *Grid) Validate() error {
	for i, w := range g.walls {
		c := g.CoordOf(i)
		for _, d := range Directions {
			if w&WallFor(d) == 0 && !g.InBounds(c.Step(d)) {
				return fmt.Errorf("%w: %s side of %s leads outside %dx%d", ErrMalformed, d, c, g.width, g.height)
			}
		}
	}
	return nil
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	walls := make([]Wall, len(g.walls))
	copy(walls, g.walls)
	return &Grid{width: g.width, height: g.height, walls: walls}
}

func (g *Grid) boundsError(c Coord) error {
	return fmt.Errorf("%w: %s not in %dx%d", ErrOutOfBounds, c, g.width, g.height)
}
