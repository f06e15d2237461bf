package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/screen"
)

// MemoryStore keeps everything in process memory. Used by tests and by the
// CLI when no MongoDB is configured. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	screens  map[string]map[string]screen.Record // projectID -> screenID -> record
	flows    map[string]map[string][]flow.Edge   // projectID -> fromScreenID -> edges
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]Project),
		screens:  make(map[string]map[string]screen.Record),
		flows:    make(map[string]map[string][]flow.Edge),
	}
}

// CreateProject creates a project with a fresh uuid.
func (s *MemoryStore) CreateProject(ctx context.Context, name, platform string) (*Project, error) {
	if err := errors.ValidateProjectName(name); err != nil {
		return nil, err
	}
	if _, err := screen.ParsePlatform(platform); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	s.screens[p.ID] = make(map[string]screen.Record)
	s.flows[p.ID] = make(map[string][]flow.Edge)
	return &p, nil
}

// Project looks up a project by id.
func (s *MemoryStore) Project(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *MemoryStore) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteProject removes a project and everything under it.
func (s *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return errors.New(errors.ErrCodeProjectNotFound, "project %s not found", id)
	}
	delete(s.projects, id)
	delete(s.screens, id)
	delete(s.flows, id)
	return nil
}

// UpsertScreen inserts or replaces a screen record.
func (s *MemoryStore) UpsertScreen(ctx context.Context, projectID string, rec screen.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	screens, ok := s.screens[projectID]
	if !ok {
		return errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}
	screens[rec.ID] = rec
	s.touch(projectID)
	return nil
}

// Screen fetches one screen record by id.
func (s *MemoryStore) Screen(ctx context.Context, projectID, screenID string) (*screen.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	screens, ok := s.screens[projectID]
	if !ok {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}
	rec, ok := screens[screenID]
	if !ok {
		return nil, errors.New(errors.ErrCodeScreenNotFound, "screen %s not found", screenID)
	}
	return &rec, nil
}

// Screens lists a project's records ordered by sortOrder.
func (s *MemoryStore) Screens(ctx context.Context, projectID string) ([]screen.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	screens, ok := s.screens[projectID]
	if !ok {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}
	out := make([]screen.Record, 0, len(screens))
	for _, rec := range screens {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ReplaceFlows atomically swaps the edge set originating from one screen.
func (s *MemoryStore) ReplaceFlows(ctx context.Context, projectID, fromScreenID string, edges []flow.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flows, ok := s.flows[projectID]
	if !ok {
		return errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}
	if len(edges) == 0 {
		delete(flows, fromScreenID)
	} else {
		flows[fromScreenID] = append([]flow.Edge(nil), edges...)
	}
	s.touch(projectID)
	return nil
}

// Flows lists every edge in a project, grouped by source screen in stable
// order.
func (s *MemoryStore) Flows(ctx context.Context, projectID string) ([]flow.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flows, ok := s.flows[projectID]
	if !ok {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}
	sources := make([]string, 0, len(flows))
	for src := range flows {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var out []flow.Edge
	for _, src := range sources {
		out = append(out, flows[src]...)
	}
	return out, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// touch bumps a project's UpdatedAt. Caller holds the write lock.
func (s *MemoryStore) touch(projectID string) {
	p := s.projects[projectID]
	p.UpdatedAt = time.Now().UTC()
	s.projects[projectID] = p
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
