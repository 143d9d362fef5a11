// Package navigation answers path requests against the loaded mazes.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gravitas-games/mazenav/internal/mazemap"
	"github.com/gravitas-games/mazenav/internal/pathcache"
	"github.com/gravitas-games/mazenav/pkg/grid"
	"github.com/gravitas-games/mazenav/pkg/path"
)

// ErrUnknownMaze is returned for requests naming a maze that is not loaded.
var ErrUnknownMaze = mazemap.ErrUnknownMaze

// Request asks for a path between two cells of a maze
type Request struct {
	MazeID string
	Start  grid.Coord
	Goal   grid.Coord
}

// Response is a resolved path request. Found false with an empty Path
// means the goal is unreachable.
type Response struct {
	RequestID string
	MazeID    string
	Path      []grid.Coord
	Found     bool
	Moves     int
	Expanded  int // zero when served from cache
	Cached    bool
	Elapsed   time.Duration
}

// MazeInfo summarises a loaded maze
type MazeInfo struct {
	ID     string
	Name   string
	Width  int
	Height int
}

// Options bounds the work done per request
type Options struct {
	Timeout       time.Duration
	MaxTraceSteps int
}

// Service resolves path requests. It is safe for concurrent use.
type Service struct {
	mazes  *mazemap.Registry
	cache  pathcache.Cache
	opts   Options
	logger *log.Logger
}

// NewService wires a registry and cache into a service
func NewService(mazes *mazemap.Registry, cache pathcache.Cache, opts Options, logger *log.Logger) *Service {
	return &Service{
		mazes:  mazes,
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

// FindPath resolves req, consulting the cache first
func (s *Service) FindPath(ctx context.Context, req Request) (Response, error) {
	began := time.Now()
	resp := Response{RequestID: uuid.NewString(), MazeID: req.MazeID}

	m, err := s.resolve(req)
	if err != nil {
		return resp, err
	}

	key := pathcache.Key{MazeID: m.ID, Fingerprint: m.Fingerprint, Start: req.Start, Goal: req.Goal}
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Path cache read failed", "maze", m.ID, "error", err)
	} else if ok {
		resp.fill(cached)
		resp.Cached = true
		resp.Elapsed = time.Since(began)
		s.logger.Debug("Path served from cache", "request", resp.RequestID, "maze", m.ID, "moves", resp.Moves)
		return resp, nil
	}

	searchCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err := path.SearchContext(searchCtx, req.Start, req.Goal, m.Grid)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("Path search timed out", "request", resp.RequestID, "maze", m.ID, "timeout", s.opts.Timeout)
		}
		return resp, fmt.Errorf("search %s %s->%s: %w", m.ID, req.Start, req.Goal, err)
	}

	resp.fill(res.Path)
	resp.Expanded = res.Expanded
	resp.Elapsed = time.Since(began)

	if err := s.cache.Set(ctx, key, res.Path); err != nil {
		s.logger.Warn("Path cache write failed", "maze", m.ID, "error", err)
	}

	s.logger.Info("Path computed",
		"request", resp.RequestID,
		"maze", m.ID,
		"from", req.Start.String(),
		"to", req.Goal.String(),
		"found", resp.Found,
		"moves", resp.Moves,
		"expanded", resp.Expanded,
		"elapsed", resp.Elapsed)
	return resp, nil
}

// Trace runs the search one expansion at a time and returns the snapshots.
// At most maxSteps snapshots are kept (the configured limit when maxSteps
// is not positive); the final one is always included.
func (s *Service) Trace(ctx context.Context, req Request, maxSteps int) ([]path.Snapshot, error) {
	m, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	if maxSteps <= 0 || (s.opts.MaxTraceSteps > 0 && maxSteps > s.opts.MaxTraceSteps) {
		maxSteps = s.opts.MaxTraceSteps
	}
	if maxSteps <= 0 {
		maxSteps = 1
	}

	st, err := path.NewStepper(req.Start, req.Goal, m.Grid)
	if err != nil {
		return nil, err
	}

	var snaps []path.Snapshot
	for !st.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := st.Step()
		if err != nil {
			return nil, err
		}
		if len(snaps) < maxSteps-1 || snap.Done {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

// Mazes lists the loaded mazes
func (s *Service) Mazes() []MazeInfo {
	mazes := s.mazes.List()
	out := make([]MazeInfo, 0, len(mazes))
	for _, m := range mazes {
		w, h := m.Grid.Size()
		out = append(out, MazeInfo{ID: m.ID, Name: m.Name, Width: w, Height: h})
	}
	return out
}

// MazeCount returns how many mazes are loaded
func (s *Service) MazeCount() int { return s.mazes.Len() }

// resolve finds the maze and rejects endpoints outside it before any
// search state is built.
func (s *Service) resolve(req Request) (*mazemap.Maze, error) {
	m, err := s.mazes.Get(req.MazeID)
	if err != nil {
		return nil, err
	}
	for _, c := range []grid.Coord{req.Start, req.Goal} {
		if !m.Contains(c) {
			w, h := m.Grid.Size()
			return nil, fmt.Errorf("%w: %s not in maze %s (%dx%d)", grid.ErrOutOfBounds, c, m.ID, w, h)
		}
	}
	return m, nil
}

func (r *Response) fill(p []grid.Coord) {
	if p == nil {
		p = []grid.Coord{}
	}
	r.Path = p
	r.Found = len(p) > 0
	if r.Found {
		r.Moves = len(p) - 1
	}
}
