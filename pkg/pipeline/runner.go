package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/screenloom/screenloom/pkg/cache"
	"github.com/screenloom/screenloom/pkg/compose"
	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/observability"
	"github.com/screenloom/screenloom/pkg/parser"
	"github.com/screenloom/screenloom/pkg/producer"
	"github.com/screenloom/screenloom/pkg/screen"
	"github.com/screenloom/screenloom/pkg/store"
)

// Runner encapsulates pipeline execution with persistence and caching.
// Both CLI and API use this to avoid duplicating the orchestration logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// run results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Store  store.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given store, cache, and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If s is nil, an in-memory store is used.
func NewRunner(s store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if s == nil {
		s = store.NewMemoryStore()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  s,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Generate drives the parser over a chunk source and persists every
// finalized screen and its validated flow edges.
//
// Chunks are applied strictly in arrival order; the source's io.EOF is the
// end-of-stream signal that triggers the parser's finish pass. Flow edges
// are validated against the final screen set, so forward references inside
// the stream resolve correctly; edges whose target never materialized are
// dropped and reported on the Result.
func (r *Runner) Generate(ctx context.Context, opts Options, src producer.Source) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	start := time.Now()
	result := &Result{}

	project, err := r.resolveProject(ctx, &opts)
	if err != nil {
		return nil, err
	}
	result.Project = project

	observability.Pipeline().OnGenerateStart(ctx, project.ID)
	logger.Info("generation started", "project", project.ID, "platform", project.Platform)

	p := parser.New()
	staged := make(map[string][]flow.Edge)

	// A follow-up stream into an existing project continues where the
	// stored screens left off: sort order keeps climbing, occupied row-0
	// columns stay claimed, and a stored root stays the root.
	sortBase := 0
	if opts.ProjectID != "" {
		existing, err := r.Store.Screens(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		p.Resume(existing)
		for _, rec := range existing {
			if rec.SortOrder >= sortBase {
				sortBase = rec.SortOrder + 1
			}
		}
	}

	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			observability.Pipeline().OnGenerateComplete(ctx, project.ID, result.Stats.ScreenCount, time.Since(start), err)
			return nil, errors.Wrap(errors.ErrCodeProducer, err, "read stream")
		}
		if err := r.apply(ctx, project.ID, p.Feed(chunk), &opts, result, staged, sortBase); err != nil {
			observability.Pipeline().OnGenerateComplete(ctx, project.ID, result.Stats.ScreenCount, time.Since(start), err)
			return nil, err
		}
	}

	events, report := p.Finish()
	if err := r.apply(ctx, project.ID, events, &opts, result, staged, sortBase); err != nil {
		observability.Pipeline().OnGenerateComplete(ctx, project.ID, result.Stats.ScreenCount, time.Since(start), err)
		return nil, err
	}
	result.Report = report

	if err := r.persistFlows(ctx, project.ID, staged, result, logger); err != nil {
		observability.Pipeline().OnGenerateComplete(ctx, project.ID, result.Stats.ScreenCount, time.Since(start), err)
		return nil, err
	}

	result.Stats.GenerateTime = time.Since(start)
	observability.Pipeline().OnGenerateComplete(ctx, project.ID, result.Stats.ScreenCount, result.Stats.GenerateTime, nil)

	logger.Info("generation finished",
		"project", project.ID,
		"screens", result.Stats.ScreenCount,
		"edges", result.Stats.EdgeCount,
		"truncated", report.Truncated,
		"duration", result.Stats.GenerateTime)

	for _, n := range report.Notices {
		logger.Warn("generation notice", "code", n.Code, "detail", n.Message)
	}
	return result, nil
}

// resolveProject loads the target project or creates a fresh one.
func (r *Runner) resolveProject(ctx context.Context, opts *Options) (*store.Project, error) {
	if opts.ProjectID != "" {
		return r.Store.Project(ctx, opts.ProjectID)
	}
	name := opts.ProjectName
	if name == "" {
		name = DefaultProjectName
	}
	return r.Store.CreateProject(ctx, name, opts.Platform)
}

// apply processes one batch of parser events. sortBase offsets new records'
// sort order past the project's previously persisted screens.
func (r *Runner) apply(ctx context.Context, projectID string, events []parser.Event, opts *Options, result *Result, staged map[string][]flow.Edge, sortBase int) error {
	for _, ev := range events {
		switch ev := ev.(type) {
		case parser.HeaderEvent:
			opts.Logger.Debug("stream header", "project", ev.Project)

		case parser.MessageEvent:
			observability.Parser().OnMessage(ctx, len(ev.Text))
			result.Messages = append(result.Messages, ev.Text)
			result.Stats.MessageCount++

		case parser.ScreenOpenEvent:
			observability.Parser().OnScreenOpen(ctx, ev.ID, ev.Edit)
			opts.Logger.Debug("screen opened", "screen", ev.ID, "edit", ev.Edit)

		case parser.ScreenCloseEvent:
			rec := ev.Record
			rec.SortOrder += sortBase
			if ev.Edit {
				// An edit replaces the record but keeps its place on the
				// canvas: position survives when the marker omits one, and
				// the original stream order always survives.
				if prev, err := r.Store.Screen(ctx, projectID, rec.ID); err == nil {
					if !ev.HasPos {
						rec.GridColumn = prev.GridColumn
						rec.GridRow = prev.GridRow
					}
					rec.SortOrder = prev.SortOrder
				}
			}
			if err := r.Store.UpsertScreen(ctx, projectID, rec); err != nil {
				return err
			}
			staged[rec.ID] = flow.Extract(rec.ID, rec.Body)
			result.Stats.ScreenCount++

			observability.Parser().OnScreenClose(ctx, rec.ID, len(rec.Body))
			opts.Logger.Info("screen completed", "screen", rec.ID, "name", rec.Name,
				"cell", [2]int{rec.GridColumn, rec.GridRow})
			if opts.OnScreen != nil {
				opts.OnScreen(rec)
			}
		}
	}
	return nil
}

// persistFlows validates every staged edge set against the final screen set
// and replaces each source screen's edges in the store.
func (r *Runner) persistFlows(ctx context.Context, projectID string, staged map[string][]flow.Edge, result *Result, logger *log.Logger) error {
	records, err := r.Store.Screens(ctx, projectID)
	if err != nil {
		return err
	}
	known := flow.KnownIDs(records)

	sources := make([]string, 0, len(staged))
	for src := range staged {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		kept, dropped := flow.Validate(staged[src], known)
		if err := r.Store.ReplaceFlows(ctx, projectID, src, kept); err != nil {
			return err
		}
		result.Stats.EdgeCount += len(kept)
		result.DroppedEdges = append(result.DroppedEdges, dropped...)
		for _, e := range dropped {
			logger.Warn("dangling flow dropped",
				"code", errors.ErrCodeDanglingFlow,
				"from", e.FromScreenID, "to", e.ToScreenID)
		}
	}
	return nil
}

// composeEnvelope is the cached shape of a composition: document plus the
// report that produced it, so cache hits can still surface root fallbacks
// and broken links.
type composeEnvelope struct {
	Doc    string          `json:"doc"`
	Report *compose.Report `json:"report"`
}

// Compose loads the persisted screen set and builds the navigable document,
// cached by a content hash of (records, platform, project name).
func (r *Runner) Compose(ctx context.Context, opts ComposeOptions) (*ComposeResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	start := time.Now()

	project, err := r.Store.Project(ctx, opts.ProjectID)
	if err != nil {
		return nil, err
	}
	platform := opts.Platform
	if platform == "" {
		platform = project.Platform
	}
	plat, err := screen.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}

	records, err := r.Store.Screens(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	recordsData, err := json.Marshal(records)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash records")
	}
	key := r.Keyer.ComposeKey(cache.Hash(recordsData), cache.ComposeKeyOpts{
		Platform:    platform,
		ProjectName: project.Name,
	})

	observability.Pipeline().OnComposeStart(ctx, project.ID, platform)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var env composeEnvelope
			if err := json.Unmarshal(data, &env); err == nil {
				observability.Cache().OnCacheHit(ctx, "compose")
				logger.Debug("compose cache hit", "project", project.ID)
				res := &ComposeResult{
					Doc:       []byte(env.Doc),
					Report:    env.Report,
					CacheInfo: CacheInfo{ComposeHit: true},
				}
				res.Stats.ScreenCount = len(records)
				res.Stats.ComposeTime = time.Since(start)
				observability.Pipeline().OnComposeComplete(ctx, project.ID, platform, len(res.Doc), res.Stats.ComposeTime, nil)
				return res, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "compose")
	}

	doc, report, err := compose.Compose(records, plat, project.Name)
	if err != nil {
		observability.Pipeline().OnComposeComplete(ctx, project.ID, platform, 0, time.Since(start), err)
		return nil, err
	}

	if data, err := json.Marshal(composeEnvelope{Doc: doc, Report: report}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.ComposeTTL); err != nil {
			logger.Warn("compose cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "compose", len(data))
		}
	}

	res := &ComposeResult{Doc: []byte(doc), Report: report}
	res.Stats.ScreenCount = len(records)
	res.Stats.ComposeTime = time.Since(start)

	observability.Pipeline().OnComposeComplete(ctx, project.ID, platform, len(doc), res.Stats.ComposeTime, nil)
	logger.Info("composed document",
		"project", project.ID,
		"platform", platform,
		"screens", len(records),
		"bytes", len(doc),
		"duration", res.Stats.ComposeTime)

	if report.MissingRoot {
		logger.Warn("no root screen", "code", errors.ErrCodeMissingRoot, "fallback", report.RootID)
	}
	if report.DuplicateRoot {
		logger.Warn("multiple root screens", "code", errors.ErrCodeDuplicateRoot, "chosen", report.RootID)
	}
	for _, bl := range report.BrokenLinks {
		logger.Warn("broken link made inert",
			"code", errors.ErrCodeBrokenLink, "screen", bl.ScreenID, "target", bl.Target)
	}
	return res, nil
}

// FlowGraph renders a project's navigation graph as DOT or SVG, cached by a
// content hash of the records and edges.
func (r *Runner) FlowGraph(ctx context.Context, projectID, format string) ([]byte, error) {
	if format != "dot" && format != "svg" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown flow format %q (must be dot or svg)", format)
	}

	records, err := r.Store.Screens(ctx, projectID)
	if err != nil {
		return nil, err
	}
	edges, err := r.Store.Flows(ctx, projectID)
	if err != nil {
		return nil, err
	}

	graphData, err := json.Marshal(struct {
		Records []screen.Record `json:"records"`
		Edges   []flow.Edge     `json:"edges"`
	}{records, edges})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash flow graph")
	}
	key := r.Keyer.FlowKey(cache.Hash(graphData), cache.FlowKeyOpts{Format: format})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "flowsvg")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "flowsvg")

	var out []byte
	if format == "dot" {
		out = []byte(flow.ToDOT(records, edges))
	} else {
		out, err = flow.RenderSVG(ctx, records, edges)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render flow graph")
		}
	}

	if err := r.Cache.Set(ctx, key, out, cache.FlowSVGTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "flowsvg", len(out))
	}
	return out, nil
}
