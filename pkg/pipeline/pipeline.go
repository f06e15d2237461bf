// Package pipeline drives the generate → persist → compose flow.
//
// This package ties the streaming parser, flow extraction, persistence,
// and the document compositor together so that CLI and server share one
// implementation. By centralizing this logic, we ensure consistent behavior
// across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline has two operations:
//
//  1. Generate: drive the parser over a chunk source, persisting each
//     finalized screen and its validated flow edges as they complete.
//  2. Compose: load the persisted screen set and build the navigable
//     document, cached by a content hash of the inputs.
//
// # Usage
//
// Create a Runner and run a generation:
//
//	runner := pipeline.NewRunner(store, cache, nil, logger)
//	opts := pipeline.Options{
//	    ProjectName: "Coffee Tracker",
//	    Platform:    "mobile",
//	}
//	result, err := runner.Generate(ctx, opts, source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Compose the persisted set:
//
//	doc, err := runner.Compose(ctx, pipeline.ComposeOptions{
//	    ProjectID: result.Project.ID,
//	})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/screenloom/screenloom/pkg/compose"
	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/parser"
	"github.com/screenloom/screenloom/pkg/screen"
	"github.com/screenloom/screenloom/pkg/store"
)

// DefaultProjectName is used when neither the options nor the stream header
// name the project.
const DefaultProjectName = "Untitled Project"

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a generation run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// ProjectID selects an existing project; empty creates a new one.
	ProjectID string `json:"project_id,omitempty"`

	// ProjectName names a newly created project. A PROJECT: header in the
	// stream takes effect only when this is empty.
	ProjectName string `json:"project_name,omitempty"`

	// Platform is the target platform for a newly created project.
	Platform string `json:"platform,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// OnScreen, when set, is called after each screen is persisted. Used
	// by the CLI progress view and the server's live hub.
	OnScreen func(rec screen.Record) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Platform == "" {
		o.Platform = string(screen.PlatformMobile)
	}
	if _, err := screen.ParsePlatform(o.Platform); err != nil {
		return err
	}
	if o.ProjectName != "" {
		if err := errors.ValidateProjectName(o.ProjectName); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ComposeOptions configures a composition run.
type ComposeOptions struct {
	// ProjectID selects the project to compose.
	ProjectID string `json:"project_id"`

	// Platform overrides the project's platform when set.
	Platform string `json:"platform,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a generation run.
type Result struct {
	// Project is the project the stream was persisted into.
	Project *store.Project

	// Report is the parser's end-of-stream report.
	Report *parser.Report

	// Messages is the conversational text emitted between screens, in
	// stream order.
	Messages []string

	// DroppedEdges are flow edges whose targets never materialized.
	DroppedEdges []flow.Edge

	// Stats contains timing and size information.
	Stats Stats
}

// ComposeResult contains the outputs of a composition run.
type ComposeResult struct {
	// Doc is the composed document.
	Doc []byte

	// Report is the compositor's findings (root fallbacks, broken links).
	Report *compose.Report

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks whether the artifact came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ScreenCount  int
	EdgeCount    int
	MessageCount int
	GenerateTime time.Duration
	ComposeTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ComposeHit bool // Whether the composed document came from cache
}
