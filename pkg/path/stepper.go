package path

import "github.com/gravitas-games/mazenav/pkg/grid"

// Snapshot describes the search after one expansion.
type Snapshot struct {
	Step    int          `json:"step"`
	Current grid.Coord   `json:"current"`
	Open    int          `json:"open"`
	Closed  int          `json:"closed"`
	Done    bool         `json:"done"`
	Found   bool         `json:"found"`
	Path    []grid.Coord `json:"path,omitempty"`
}

// Stepper runs the same search as Search one expansion at a time, for
// tracing and debugging tools.
type Stepper struct {
	s *search
}

// NewStepper validates start and goal and prepares a search.
func NewStepper(start, goal grid.Coord, g Grid) (*Stepper, error) {
	s, err := newSearch(start, goal, g)
	if err != nil {
		return nil, err
	}
	return &Stepper{s: s}, nil
}

// Done reports whether the search has finished.
func (st *Stepper) Done() bool { return st.s.done }

// Step expands one node. Once the search is done it keeps returning the
// final snapshot, or the error that ended it.
func (st *Stepper) Step() (Snapshot, error) {
	if _, err := st.s.step(); err != nil {
		return Snapshot{}, err
	}
	return st.snapshot(), nil
}

// Result returns the search outcome so far, or the error that ended it.
func (st *Stepper) Result() (Result, error) {
	if st.s.err != nil {
		return Result{}, st.s.err
	}
	return st.s.result(), nil
}

func (st *Stepper) snapshot() Snapshot {
	s := st.s
	snap := Snapshot{
		Step:   s.expanded,
		Open:   s.open.Len(),
		Closed: s.closed,
		Done:   s.done,
		Found:  s.found,
	}
	if s.current >= 0 {
		snap.Current = s.coord(s.current)
	}
	if s.done {
		snap.Path = s.path
	}
	return snap
}
