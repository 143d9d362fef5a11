package path

import (
	"fmt"

	"github.com/gravitas-games/mazenav/pkg/grid"
)

// neighbors appends to out the cells reachable in one move from cell, in
// grid.Directions order. Only cell's own walls are consulted: a wall drawn
// on one side of a shared edge blocks travel in that direction only.
//
// A side left open at the grid edge is a malformed grid and yields an
// error wrapping grid.ErrOutOfBounds.
func neighbors(cell grid.Cell, width, height int, out []grid.Coord) ([]grid.Coord, error) {
	pos := cell.Position()
	for _, d := range grid.Directions {
		if cell.HasWall(d) {
			continue
		}
		nb := pos.Step(d)
		if nb.X < 0 || nb.X >= width || nb.Y < 0 || nb.Y >= height {
			return out, fmt.Errorf("%w: %s side of %s is open onto %s", grid.ErrOutOfBounds, d, pos, nb)
		}
		out = append(out, nb)
	}
	return out, nil
}

// reconstruct follows predecessors from i back to the start and returns
// the positions in travel order.
func (s *search) reconstruct(i int) []grid.Coord {
	var rev []grid.Coord
	for {
		rev = append(rev, s.coord(i))
		if i == s.start || s.came[i] < 0 {
			break
		}
		i = int(s.came[i])
	}
	for l, r := 0, len(rev)-1; l < r; l, r = l+1, r-1 {
		rev[l], rev[r] = rev[r], rev[l]
	}
	return rev
}
