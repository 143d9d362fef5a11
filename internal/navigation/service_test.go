package navigation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/gravitas-games/mazenav/internal/logging"
	"github.com/gravitas-games/mazenav/internal/mazemap"
	"github.com/gravitas-games/mazenav/internal/pathcache"
	"github.com/gravitas-games/mazenav/pkg/grid"
)

// A 3x3 room plus a sealed cell at (4,0) in a 5x3 maze.
const roomMaze = `
id: room
width: 5
height: 3
walls:
  - {x: 2, y: 0, side: right}
  - {x: 2, y: 1, side: right}
  - {x: 2, y: 2, side: right}
  - {x: 3, y: 0, side: right}
  - {x: 3, y: 1, side: right}
  - {x: 3, y: 2, side: right}
`

type brokenCache struct{ sets int }

func (b *brokenCache) Get(context.Context, pathcache.Key) ([]grid.Coord, bool, error) {
	return nil, false, errors.New("cache down")
}

func (b *brokenCache) Set(context.Context, pathcache.Key, []grid.Coord) error {
	b.sets++
	return errors.New("cache down")
}

func newTestService(t *testing.T, cache pathcache.Cache) *Service {
	t.Helper()
	reg := mazemap.NewRegistry(logging.Discard())
	m, err := mazemap.ParseMaze([]byte(roomMaze))
	if err != nil {
		t.Fatalf("parse maze: %v", err)
	}
	if err := reg.Add(m); err != nil {
		t.Fatalf("add maze: %v", err)
	}
	return NewService(reg, cache, Options{Timeout: time.Second, MaxTraceSteps: 4}, logging.Discard())
}

func TestFindPathThenCached(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	req := Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 2, Y: 2}}

	first, err := svc.FindPath(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Found || first.Moves != 4 || first.Cached || first.Expanded == 0 {
		t.Fatalf("unexpected first response: %+v", first)
	}
	if first.RequestID == "" {
		t.Fatalf("expected a request id")
	}

	second, err := svc.FindPath(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || second.Expanded != 0 {
		t.Fatalf("expected cached response, got %+v", second)
	}
	if !reflect.DeepEqual(first.Path, second.Path) {
		t.Fatalf("cached path %v differs from computed %v", second.Path, first.Path)
	}
	if first.RequestID == second.RequestID {
		t.Fatalf("request ids should be unique")
	}
}

func TestFindPathNoPathIsNotAnError(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	req := Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 4, Y: 1}}

	for i := 0; i < 2; i++ {
		resp, err := svc.FindPath(context.Background(), req)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if resp.Found || resp.Path == nil || len(resp.Path) != 0 || resp.Moves != 0 {
			t.Fatalf("call %d: expected empty result, got %+v", i, resp)
		}
		if resp.Cached != (i == 1) {
			t.Fatalf("call %d: cached=%v", i, resp.Cached)
		}
	}
}

func TestFindPathErrors(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	ctx := context.Background()

	_, err := svc.FindPath(ctx, Request{MazeID: "nope"})
	if !errors.Is(err, ErrUnknownMaze) {
		t.Fatalf("expected ErrUnknownMaze, got %v", err)
	}

	_, err = svc.FindPath(ctx, Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 5, Y: 0}})
	if !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}

	expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()
	_, err = svc.FindPath(expired, Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 2, Y: 2}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestFindPathSurvivesCacheFailure(t *testing.T) {
	cache := &brokenCache{}
	svc := newTestService(t, cache)
	resp, err := svc.FindPath(context.Background(), Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 1, Y: 0}})
	if err != nil {
		t.Fatalf("cache failures must not fail requests: %v", err)
	}
	if !resp.Found || resp.Moves != 1 || cache.sets != 1 {
		t.Fatalf("unexpected response %+v (sets=%d)", resp, cache.sets)
	}
}

func TestTraceCapsSnapshots(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	req := Request{MazeID: "room", Start: grid.Coord{X: 0, Y: 0}, Goal: grid.Coord{X: 2, Y: 2}}

	snaps, err := svc.Trace(context.Background(), req, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 4 {
		t.Fatalf("expected snapshots capped at 4, got %d", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if !last.Done || !last.Found || len(last.Path) != 5 {
		t.Fatalf("final snapshot should carry the path: %+v", last)
	}
	for i := 0; i < 3; i++ {
		if snaps[i].Step != i+1 {
			t.Fatalf("snapshot %d has step %d", i, snaps[i].Step)
		}
	}
}

func TestTraceOutOfBounds(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	_, err := svc.Trace(context.Background(), Request{MazeID: "room", Start: grid.Coord{X: -1, Y: 0}}, 10)
	if !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestMazes(t *testing.T) {
	svc := newTestService(t, pathcache.NewMemoryCache(16))
	got := svc.Mazes()
	want := []MazeInfo{{ID: "room", Name: "room", Width: 5, Height: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if svc.MazeCount() != 1 {
		t.Fatalf("expected 1 maze, got %d", svc.MazeCount())
	}
}
