package grid

import (
	"errors"
	"math"
	"testing"
)

func TestNewWallsBoundary(t *testing.T) {
	g := MustNew(3, 2)
	corner, err := g.CellAt(Coord{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !corner.HasWall(Left) || !corner.HasWall(Down) {
		t.Fatalf("expected left and down walls on origin, got %04b", corner.Walls())
	}
	if corner.HasWall(Up) || corner.HasWall(Right) {
		t.Fatalf("expected open up and right on origin, got %04b", corner.Walls())
	}
	mid, _ := g.CellAt(Coord{1, 1})
	if !mid.HasWall(Up) || mid.HasWall(Down) || mid.HasWall(Left) || mid.HasWall(Right) {
		t.Fatalf("unexpected walls on top middle cell: %04b", mid.Walls())
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("fresh grid should validate: %v", err)
	}
}

func TestNewInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 4}, {4, -1}, {MaxCells + 1, 1}, {1 << 13, 1 << 12}, {math.MaxInt, 2}} {
		if _, err := New(size[0], size[1]); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("New(%d, %d): expected ErrInvalidSize, got %v", size[0], size[1], err)
		}
	}
	if g, err := New(MaxCells, 1); err != nil || g.Len() != MaxCells {
		t.Fatalf("New(MaxCells, 1) should succeed, got %v", err)
	}
}

func TestCellAtOutOfBounds(t *testing.T) {
	g := MustNew(2, 2)
	for _, c := range []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if _, err := g.CellAt(c); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("CellAt(%s): expected ErrOutOfBounds, got %v", c, err)
		}
	}
}

func TestAddWallIsSymmetric(t *testing.T) {
	g := MustNew(2, 1)
	if err := g.AddWall(Coord{0, 0}, Right); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := g.CellAt(Coord{0, 0})
	b, _ := g.CellAt(Coord{1, 0})
	if !a.HasWall(Right) || !b.HasWall(Left) {
		t.Fatalf("expected wall on both sides, got %04b / %04b", a.Walls(), b.Walls())
	}
	if err := g.RemoveWall(Coord{1, 0}, Left); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ = g.CellAt(Coord{0, 0})
	b, _ = g.CellAt(Coord{1, 0})
	if a.HasWall(Right) || b.HasWall(Left) {
		t.Fatalf("expected wall removed on both sides, got %04b / %04b", a.Walls(), b.Walls())
	}
}

func TestSetWallOneWay(t *testing.T) {
	g := MustNew(2, 1)
	if err := g.SetWall(Coord{0, 0}, Right, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := g.CellAt(Coord{1, 0})
	if b.HasWall(Left) {
		t.Fatalf("SetWall must not touch the neighbor")
	}
}

func TestRemoveBoundaryWallRejected(t *testing.T) {
	g := MustNew(2, 2)
	if err := g.RemoveWall(Coord{0, 0}, Left); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestValidateOpenBoundary(t *testing.T) {
	g := MustNew(2, 2)
	if err := g.SetWall(Coord{1, 1}, Up, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Validate(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCloneIndependent(t *testing.T) {
	g := MustNew(2, 2)
	c := g.Clone()
	if err := c.AddWall(Coord{0, 0}, Up); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orig, _ := g.CellAt(Coord{0, 0})
	if orig.HasWall(Up) {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestDirectionHelpers(t *testing.T) {
	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Fatalf("opposite of opposite of %s is not itself", d)
		}
		back := Coord{3, 3}.Step(d).Step(d.Opposite())
		if back != (Coord{3, 3}) {
			t.Fatalf("stepping %s and back ended at %s", d, back)
		}
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Fatalf("ParseDirection(%q) = %v, %v", d.String(), parsed, err)
		}
	}
	if _, err := ParseDirection("north"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
	if got := (Coord{0, 0}).Step(Up); got != (Coord{0, 1}) {
		t.Fatalf("up should grow Y, got %s", got)
	}
}

func TestManhattan(t *testing.T) {
	if d := Manhattan(Coord{0, 0}, Coord{2, 2}); d != 4 {
		t.Fatalf("expected 4, got %d", d)
	}
	if d := Manhattan(Coord{5, -1}, Coord{2, 3}); d != 7 {
		t.Fatalf("expected 7, got %d", d)
	}
}
