package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gridwalk/server/internal/grid"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// Entry is a validated scenario ready to be instantiated.
type Entry struct {
	Document Document
	Warnings []string
}

// Resolver merges scenario files into a stable lookup table. Call Reload to
// pick up on-disk changes.
type Resolver struct {
	mu      sync.RWMutex
	sources []source
	entries map[string]Entry
}

// DefaultDir is the canonical scenario location relative to the server
// module root.
const DefaultDir = "scenarios"

// Load builds a resolver over every *.json file under dir.
func Load(dir string) (*Resolver, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scenario: list %s: %w", dir, err)
	}
	sort.Strings(paths)
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, fileSource{path: path})
	}
	return newResolver(sources...)
}

func newResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{sources: sources}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads every source and atomically swaps the entry table.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make(map[string]Entry, len(r.sources))
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			return fmt.Errorf("scenario: read %s: %w", src.Path(), err)
		}
		var doc Document
		decoder := json.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&doc); err != nil {
			return fmt.Errorf("scenario: parse %s: %w", src.Path(), err)
		}
		warnings, err := Validate(doc)
		if err != nil {
			return fmt.Errorf("scenario: %s: %w", src.Path(), err)
		}
		if _, exists := entries[doc.ID]; exists {
			return fmt.Errorf("scenario: duplicate id %q in %s", doc.ID, src.Path())
		}
		entries[doc.ID] = Entry{Document: doc, Warnings: warnings}
	}
	r.entries = entries
	return nil
}

// Get returns the entry for the given scenario ID.
func (r *Resolver) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// IDs lists known scenario IDs in lexical order.
func (r *Resolver) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks a document for structural problems. Hard errors reject the
// document; soft issues (an entrance with no exit anywhere) come back as
// warnings so the playground can still load the scenario.
func Validate(doc Document) ([]string, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	cfg := doc.Grid
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.CellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cfg.CellSize)
	}

	entrances := 0
	exits := 0
	for i, cell := range doc.Cells {
		cellType, ok := grid.ParseCellType(cell.Type)
		if !ok {
			return nil, fmt.Errorf("cells[%d]: unknown cell type %q", i, cell.Type)
		}
		if cell.X < 0 || cell.Z < 0 || cell.X >= cfg.Width || cell.Z >= cfg.Height {
			return nil, fmt.Errorf("cells[%d]: (%d,%d) outside %dx%d grid", i, cell.X, cell.Z, cfg.Width, cfg.Height)
		}
		switch cellType {
		case grid.CellWormholeEntrance:
			entrances++
		case grid.CellWormholeExit:
			exits++
		}
	}

	for i, agent := range doc.Agents {
		if agent.StartX < 0 || agent.StartZ < 0 || agent.StartX >= cfg.Width || agent.StartZ >= cfg.Height {
			return nil, fmt.Errorf("agents[%d]: start (%d,%d) outside grid", i, agent.StartX, agent.StartZ)
		}
		if agent.GoalX < 0 || agent.GoalZ < 0 || agent.GoalX >= cfg.Width || agent.GoalZ >= cfg.Height {
			return nil, fmt.Errorf("agents[%d]: goal (%d,%d) outside grid", i, agent.GoalX, agent.GoalZ)
		}
		if agent.Speed < 0 {
			return nil, fmt.Errorf("agents[%d]: negative speed %v", i, agent.Speed)
		}
	}

	var warnings []string
	if entrances > 0 && exits == 0 {
		warnings = append(warnings, "wormhole entrance present but no exit anywhere in the grid")
	}
	return warnings, nil
}

// Build instantiates the scenario's grid.
func Build(doc Document) (*grid.Grid, error) {
	g := grid.New(doc.Grid.Config())
	for _, cell := range doc.Cells {
		cellType, ok := grid.ParseCellType(cell.Type)
		if !ok {
			return nil, fmt.Errorf("scenario %s: unknown cell type %q", doc.ID, cell.Type)
		}
		next, err := g.SetCellType(cell.X, cell.Z, cellType)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", doc.ID, err)
		}
		g = next
	}
	return g, nil
}
