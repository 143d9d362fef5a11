package grid

import (
	"fmt"
	"strings"
)

// Coord identifies a cell by column (X) and row (Y).
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns a+b.
func (a Coord) Add(b Coord) Coord { return Coord{a.X + b.X, a.Y + b.Y} }

// Step returns the coordinate one move away in direction d.
func (a Coord) Step(d Direction) Coord { return a.Add(d.Delta()) }

func (a Coord) String() string { return fmt.Sprintf("(%d,%d)", a.X, a.Y) }

// Direction is one of the four cardinal sides of a cell.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions in neighbor expansion order.
var Directions = []Direction{Up, Down, Left, Right}

// Up grows Y, Right grows X.
var deltas = [...]Coord{
	Up:    {0, +1},
	Down:  {0, -1},
	Left:  {-1, 0},
	Right: {+1, 0},
}

var names = [...]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

// Delta returns the unit offset of a move in direction d.
func (d Direction) Delta() Coord { return deltas[d] }

// Opposite returns the side facing d on the neighboring cell.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection accepts up/down/left/right, case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Manhattan returns |a.X-b.X| + |a.Y-b.Y|.
func Manhattan(a, b Coord) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
