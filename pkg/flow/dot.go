package flow

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"

	"github.com/screenloom/screenloom/pkg/screen"
)

// ToDOT returns a Graphviz DOT representation of a project's navigation
// graph.
//
// Screens become nodes labeled with their human-readable name; the root
// screen gets a doubled border. Edges carry the element descriptor as their
// label when present. Nodes and edges are emitted in a stable order (records
// by sort order, edges as given) so the output is deterministic.
//
// Screens referenced only by id (no record in the set) are skipped - edges
// must already be validated before rendering.
func ToDOT(records []screen.Record, edges []Edge) string {
	ordered := make([]screen.Record, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	known := KnownIDs(records)

	var buf bytes.Buffer
	buf.WriteString("digraph flows {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, shape=box, style=\"filled,rounded\", fillcolor=white];\n")
	buf.WriteString("  edge [fontsize=10];\n\n")

	for _, r := range ordered {
		if r.IsRoot {
			fmt.Fprintf(&buf, "  %q [label=%q, peripheries=2];\n", r.ID, r.Name)
		} else {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", r.ID, r.Name)
		}
	}
	buf.WriteString("\n")

	for _, e := range edges {
		if !known[e.FromScreenID] || !known[e.ToScreenID] {
			continue
		}
		if e.ElementDescriptor != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.FromScreenID, e.ToScreenID, e.ElementDescriptor)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.FromScreenID, e.ToScreenID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the navigation graph as an SVG image via Graphviz.
//
// RenderSVG requires the Graphviz library (github.com/goccy/go-graphviz) to
// initialize; errors are wrapped with context and suitable for errors.Is /
// errors.Unwrap.
func RenderSVG(ctx context.Context, records []screen.Record, edges []Edge) ([]byte, error) {
	dot := ToDOT(records, edges)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render SVG: %w", err)
	}
	return buf.Bytes(), nil
}
