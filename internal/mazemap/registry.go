// Package mazemap loads maze definitions and serves them by ID.
package mazemap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var ErrUnknownMaze = errors.New("unknown maze")

// Registry holds every loaded maze keyed by ID
type Registry struct {
	mu     sync.RWMutex
	mazes  map[string]*Maze
	logger *log.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		mazes:  make(map[string]*Maze),
		logger: logger,
	}
}

// LoadDir parses every .yaml/.yml file in dir into the registry
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read maze directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		file := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		m, err := ParseMaze(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := r.Add(m); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		loaded++
	}

	r.logger.Info("Mazes loaded", "dir", dir, "count", loaded)
	return nil
}

// Add registers m; IDs must be unique
func (r *Registry) Add(m *Maze) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.mazes[m.ID]; exists {
		return fmt.Errorf("duplicate maze id %q", m.ID)
	}
	r.mazes[m.ID] = m
	w, h := m.Grid.Size()
	r.logger.Debug("Maze registered", "id", m.ID, "width", w, "height", h, "fingerprint", m.Fingerprint)
	return nil
}

// Get retrieves a maze by ID
func (r *Registry) Get(id string) (*Maze, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.mazes[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaze, id)
	}
	return m, nil
}

// List returns all mazes sorted by ID
func (r *Registry) List() []*Maze {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Maze, 0, len(r.mazes))
	for _, m := range r.mazes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered mazes
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mazes)
}
