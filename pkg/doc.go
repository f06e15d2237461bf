// Package pkg provides the core libraries for Screenloom.
//
// # Overview
//
// Screenloom turns a marker-delimited LLM output stream into a set of app
// screens, lays them out on a uniform canvas grid, extracts the navigation
// graph, and composes everything into a single self-contained HTML document
// that switches screens with fragment navigation alone.
//
// The typical data flow:
//
//	LLM token stream
//	         ↓
//	    [parser] package (incremental marker parsing, chunk-safe)
//	         ↓
//	    [store] package (projects, screens, flows)
//	         ↓
//	    [layout] + [flow] packages (grid placement, data-flow edges)
//	         ↓
//	    [compose] package (:target-navigable HTML document)
//
// # Main Packages
//
// [parser] - Incremental parser for PROJECT/SCREEN_START/SCREEN_EDIT/
// SCREEN_END markers. Feed accepts chunks split at arbitrary byte
// boundaries; screens surface as events the moment they close.
//
// [screen] - Screen records, id derivation, and platform profiles
// (cell sizes for mobile and desktop).
//
// [layout] - Uniform grid placement: grid cells to pixel rectangles,
// collision handling, and canvas bounds.
//
// [flow] - Navigation edges extracted from data-flow attributes, edge
// validation against the known screen set, and Graphviz DOT/SVG export.
//
// [compose] - The composed document: screens stacked in one HTML file,
// navigated with :target CSS, broken links neutralized and reported.
//
// [canvas] - World-to-canvas coordinate transforms, camera fitting, and
// curved arrow geometry for the flow overlay.
//
// [pipeline] - Orchestration used by both CLI and server: stream in,
// persist, validate flows, compose with content-addressed caching.
//
// [producer] - Token sources: any io.Reader or a streaming HTTP endpoint
// with retry on transient failures.
//
// [store] - Persistence backends: in-memory for tests and one-shot CLI
// runs, MongoDB for the server.
//
// [cache] - Content-addressed caches for composed documents and rendered
// flow graphs: file-based for the CLI, Redis for the server.
//
// [publish] - Share-token publishing of composed documents.
//
// [config] - TOML configuration with environment overrides.
//
// # Quick Start
//
// Stream a generation and compose the document:
//
//	import (
//	    "context"
//	    "strings"
//
//	    "github.com/screenloom/screenloom/pkg/pipeline"
//	    "github.com/screenloom/screenloom/pkg/producer"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	src := producer.NewReaderSource(strings.NewReader(stream))
//	result, _ := runner.Generate(context.Background(), pipeline.Options{
//	    ProjectName: "Coffee Tracker",
//	}, src)
//
//	doc, _ := runner.Compose(context.Background(), pipeline.ComposeOptions{
//	    ProjectID: result.Project.ID,
//	})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/parser/...     # Specific package
//
// [parser]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/parser
// [screen]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/screen
// [layout]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/layout
// [flow]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/flow
// [compose]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/compose
// [canvas]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/canvas
// [pipeline]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/pipeline
// [producer]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/producer
// [store]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/store
// [cache]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/cache
// [publish]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/publish
// [config]: https://pkg.go.dev/github.com/screenloom/screenloom/pkg/config
package pkg
