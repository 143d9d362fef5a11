// Package path finds shortest routes through wall-partitioned grids.
//
// The search is A* with unit move cost and the Manhattan heuristic. All
// per-search state lives in an arena allocated for the call, so concurrent
// searches are safe as long as nobody mutates the grids they read.
package path

import (
	"context"
	"fmt"
	"math"

	"github.com/gravitas-games/mazenav/pkg/grid"
)

// Grid is what the search needs from a maze. *grid.Grid implements it.
type Grid interface {
	Size() (width, height int)
	CellAt(c grid.Coord) (grid.Cell, error)
}

// Result is the outcome of a search.
type Result struct {
	// Path runs from start to goal inclusive, empty when Found is false.
	Path     []grid.Coord
	Found    bool
	Expanded int // nodes taken off the frontier
}

// Moves returns the number of steps along Path.
func (r Result) Moves() int {
	if len(r.Path) == 0 {
		return 0
	}
	return len(r.Path) - 1
}

// cancelCheckInterval is how many expansions SearchContext runs between
// polls of its context.
const cancelCheckInterval = 256

// FindPathToTarget returns the positions of a shortest path from start to
// goal, both included. An empty slice means no path exists; an error means
// the call was invalid (start, goal or a wall-implied neighbor lies outside
// the grid).
func FindPathToTarget(start, goal grid.Coord, g Grid) ([]grid.Coord, error) {
	res, err := Search(start, goal, g)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Search runs the search to completion.
func Search(start, goal grid.Coord, g Grid) (Result, error) {
	return SearchContext(context.Background(), start, goal, g)
}

// SearchContext is Search with cancellation. The context is polled between
// expansions; on cancellation the context's error is returned.
func SearchContext(ctx context.Context, start, goal grid.Coord, g Grid) (Result, error) {
	s, err := newSearch(start, goal, g)
	if err != nil {
		return Result{}, err
	}
	for !s.done {
		if s.expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		if _, err := s.step(); err != nil {
			return Result{}, err
		}
	}
	return s.result(), nil
}

const (
	unseen uint8 = iota
	open
	closed
)

// node is the per-cell search record. Nodes live in one slice indexed by
// the flattened coordinate.
type node struct {
	g       int
	h       int
	seq     int
	heapIdx int
	state   uint8
}

func (n *node) f() int { return n.g + n.h }

type search struct {
	grid   Grid
	width  int
	height int
	start  int
	goal   int

	nodes []node
	came  []int32 // predecessor index, -1 for none
	open  *frontier

	nextSeq  int
	expanded int
	closed   int
	current  int

	done  bool
	found bool
	path  []grid.Coord
	err   error // set when the grid turned out malformed; ends the search
}

func newSearch(start, goal grid.Coord, g Grid) (*search, error) {
	if _, err := g.CellAt(start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if _, err := g.CellAt(goal); err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	w, h := g.Size()
	if w <= 0 || h <= 0 || w > grid.MaxCells/h {
		return nil, fmt.Errorf("%w: %dx%d", grid.ErrInvalidSize, w, h)
	}
	s := &search{
		grid:    g,
		width:   w,
		height:  h,
		current: -1,
	}
	s.nodes, s.came = newArena(w, h, goal)
	s.start = s.index(start)
	s.goal = s.index(goal)
	s.open = newFrontier(s.nodes)

	s.nodes[s.start].g = 0
	s.openNode(s.start)
	return s, nil
}

// newArena builds the node index: every cell unreached, with its fixed
// Manhattan estimate to goal.
func newArena(width, height int, goal grid.Coord) ([]node, []int32) {
	nodes := make([]node, width*height)
	came := make([]int32, width*height)
	for i := range nodes {
		pos := grid.Coord{X: i % width, Y: i / width}
		nodes[i] = node{
			g:       math.MaxInt,
			h:       grid.Manhattan(pos, goal),
			heapIdx: -1,
		}
		came[i] = -1
	}
	return nodes, came
}

// step pops the best open node and expands it. It returns the popped index,
// or -1 if the frontier was already empty. An error is final: every later
// call returns it again.
func (s *search) step() (int, error) {
	if s.done {
		return -1, s.err
	}
	if s.open.Len() == 0 {
		s.finish(false)
		return -1, nil
	}

	cur := s.open.popMin()
	s.expanded++
	s.current = cur

	if cur == s.goal {
		s.finish(true)
		return cur, nil
	}

	s.nodes[cur].state = closed
	s.closed++

	cell, err := s.grid.CellAt(s.coord(cur))
	if err != nil {
		return cur, s.fail(err)
	}
	var buf [4]grid.Coord
	nbs, err := neighbors(cell, s.width, s.height, buf[:0])
	if err != nil {
		return cur, s.fail(err)
	}

	tentative := s.nodes[cur].g + 1
	for _, nb := range nbs {
		n := s.index(nb)
		if s.nodes[n].state == closed {
			continue
		}
		if tentative >= s.nodes[n].g {
			continue
		}
		s.came[n] = int32(cur)
		s.nodes[n].g = tentative
		if s.nodes[n].state == open {
			s.open.fix(n)
		} else {
			s.openNode(n)
		}
	}
	return cur, nil
}

func (s *search) openNode(i int) {
	s.nodes[i].state = open
	s.nodes[i].seq = s.nextSeq
	s.nextSeq++
	s.open.push(i)
}

func (s *search) finish(found bool) {
	s.done = true
	s.found = found
	if found {
		s.path = s.reconstruct(s.goal)
	} else {
		s.path = []grid.Coord{}
	}
}

// fail ends the search with err and no path.
func (s *search) fail(err error) error {
	s.done = true
	s.err = err
	s.path = nil
	return err
}

func (s *search) result() Result {
	return Result{Path: s.path, Found: s.found, Expanded: s.expanded}
}

func (s *search) index(c grid.Coord) int { return c.Y*s.width + c.X }

func (s *search) coord(i int) grid.Coord { return grid.Coord{X: i % s.width, Y: i / s.width} }
