// Package store persists projects, screen records, and flow edges.
//
// Two implementations exist: an in-memory store for tests and standalone CLI
// runs, and a MongoDB store for server deployments. Both enforce the same
// contract: screen ids are unique per project, screen listings come back
// ordered by sortOrder, and a source screen's flow edges are replaced as a
// unit, never merged.
package store

import (
	"context"
	"time"

	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/screen"
)

// Project is one generation workspace: a named screen set on a platform.
type Project struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Platform  string    `json:"platform" bson:"platform"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the persistence boundary.
//
// Not-found conditions are reported with errors.ErrCodeProjectNotFound /
// errors.ErrCodeScreenNotFound; backend failures with errors.ErrCodeStore.
type Store interface {
	// CreateProject creates a project with a fresh uuid.
	CreateProject(ctx context.Context, name, platform string) (*Project, error)

	// Project looks up a project by id.
	Project(ctx context.Context, id string) (*Project, error)

	// ListProjects returns all projects ordered by creation time.
	ListProjects(ctx context.Context) ([]Project, error)

	// DeleteProject removes a project and everything under it.
	DeleteProject(ctx context.Context, id string) error

	// UpsertScreen inserts or replaces a screen record. The (project,
	// screen id) pair is the identity; a replace keeps the identity and
	// swaps everything else.
	UpsertScreen(ctx context.Context, projectID string, rec screen.Record) error

	// Screen fetches one screen record by id.
	Screen(ctx context.Context, projectID, screenID string) (*screen.Record, error)

	// Screens lists a project's records ordered by sortOrder.
	Screens(ctx context.Context, projectID string) ([]screen.Record, error)

	// ReplaceFlows atomically swaps the edge set originating from one
	// screen. An empty edge slice clears it.
	ReplaceFlows(ctx context.Context, projectID, fromScreenID string, edges []flow.Edge) error

	// Flows lists every edge in a project.
	Flows(ctx context.Context, projectID string) ([]flow.Edge, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
