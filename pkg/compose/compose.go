// Package compose builds a single self-contained HTML document from a
// finalized screen set.
//
// The document contains no scripts: navigation between screens rides entirely
// on URL fragment state via :target CSS rules. The default-visible screen is
// placed last in the DOM so a sibling combinator can hide it whenever any
// other screen is targeted.
//
// Composition is idempotent and side-effect-free: the same (records,
// platform, projectName) tuple always yields byte-identical output, which is
// what makes overwrite-style publishing of the "latest" artifact safe.
package compose

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/screenloom/screenloom/pkg/flow"
	"github.com/screenloom/screenloom/pkg/screen"
)

// Report collects the non-fatal findings of one composition pass.
type Report struct {
	// RootID is the id of the screen rendered default-visible. When the
	// record set carries no root (or more than one), composition falls back
	// to sortOrder and flags it here instead of failing.
	RootID        string       `json:"root_id,omitempty"`
	MissingRoot   bool         `json:"missing_root,omitempty"`
	DuplicateRoot bool         `json:"duplicate_root,omitempty"`
	ScreenCount   int          `json:"screen_count"`
	BrokenLinks   []BrokenLink `json:"broken_links,omitempty"`
}

// BrokenLink records an internal link whose fragment target matched no known
// screen id. The link is left inert in the output, never dropped silently.
type BrokenLink struct {
	ScreenID string `json:"screen_id"`
	Target   string `json:"target"`
}

// Compose renders the full navigable document for a screen set.
//
// Records may arrive in any order; output ordering is fixed by sortOrder
// (ties broken by id) with the default screen moved last. Internal fragment
// links are validated against the known id set and neutralized when dangling.
// An empty record set produces a minimal valid document.
func Compose(records []screen.Record, platform screen.Platform, projectName string) (string, *Report, error) {
	report := &Report{ScreenCount: len(records)}

	ordered := make([]screen.Record, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	defaultID := pickDefault(ordered, report)
	report.RootID = defaultID

	known := flow.KnownIDs(records)
	profile := screen.ProfileFor(platform)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<meta name=\"viewport\" content=\"width=%d, initial-scale=1\">\n", int(profile.CellWidth))
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(projectName))
	writeStyle(&b, profile)
	b.WriteString("</head>\n<body>\n")

	// Default screen last so ".screen:target ~ .screen.root" can hide it
	// when any other screen is addressed.
	for _, rec := range ordered {
		if rec.ID == defaultID {
			continue
		}
		writeScreen(&b, rec, false, known, report)
	}
	for _, rec := range ordered {
		if rec.ID == defaultID {
			writeScreen(&b, rec, true, known, report)
		}
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), report, nil
}

// pickDefault chooses the default-visible screen: the single root when
// exactly one exists, otherwise the first screen by sort order, with the
// deviation flagged on the report.
func pickDefault(ordered []screen.Record, report *Report) string {
	var roots []string
	for _, rec := range ordered {
		if rec.IsRoot {
			roots = append(roots, rec.ID)
		}
	}
	switch {
	case len(roots) == 1:
		return roots[0]
	case len(roots) > 1:
		report.DuplicateRoot = true
		return roots[0]
	case len(ordered) > 0:
		report.MissingRoot = true
		return ordered[0].ID
	}
	return ""
}

func writeStyle(b *strings.Builder, p screen.Profile) {
	b.WriteString("<style>\n")
	b.WriteString("html,body{margin:0;padding:0;background:#111;}\n")
	fmt.Fprintf(b, ".screen{display:none;width:%dpx;min-height:%dpx;margin:0 auto;background:#fff;overflow:hidden;}\n",
		int(p.CellWidth), int(p.CellHeight))
	b.WriteString(".screen:target{display:block;}\n")
	b.WriteString(".screen.root{display:block;}\n")
	b.WriteString(".screen:target ~ .screen.root{display:none;}\n")
	b.WriteString("</style>\n")
}

func writeScreen(b *strings.Builder, rec screen.Record, isDefault bool, known map[string]bool, report *Report) {
	class := "screen"
	if isDefault {
		class = "screen root"
	}
	fmt.Fprintf(b, "<section class=\"%s\" id=\"%s\" data-screen-name=\"%s\">\n",
		class, rec.ID, html.EscapeString(rec.Name))
	body, broken := rewriteLinks(rec.Body, known)
	b.WriteString(body)
	b.WriteString("\n</section>\n")
	for _, target := range broken {
		report.BrokenLinks = append(report.BrokenLinks, BrokenLink{ScreenID: rec.ID, Target: target})
	}
}

// rewriteLinks validates every internal fragment link in a screen body.
// Links whose fragment is not a known screen id are rewritten to the inert
// "#" and returned as broken targets; all other markup passes through
// untouched.
func rewriteLinks(body string, known map[string]bool) (string, []string) {
	var broken []string
	var out strings.Builder
	pos := 0
	for {
		at, valStart, valEnd, ok := nextFragmentHref(body, pos)
		if !ok {
			out.WriteString(body[pos:])
			return out.String(), broken
		}
		target := body[valStart:valEnd]
		if target == "" || known[screen.NormalizeTarget(target)] {
			out.WriteString(body[pos:valEnd])
		} else {
			broken = append(broken, target)
			out.WriteString(body[pos:at])
			// valStart-1 is the '#'; drop the dangling fragment.
			out.WriteString(body[at : valStart-1])
			out.WriteString("#")
		}
		pos = valEnd
	}
}

// nextFragmentHref locates the next href="#..." (either quote style) at or
// after pos. Returns the index of the 'h' in href, the bounds of the
// fragment value (after the '#', before the closing quote), and whether a
// match was found.
func nextFragmentHref(s string, pos int) (at, valStart, valEnd int, ok bool) {
	for {
		rel := strings.Index(s[pos:], "href=")
		if rel < 0 {
			return 0, 0, 0, false
		}
		at = pos + rel
		i := at + len("href=")
		if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
			pos = i
			continue
		}
		quote := s[i]
		if i+1 >= len(s) || s[i+1] != '#' {
			pos = i + 1
			continue
		}
		end := strings.IndexByte(s[i+2:], quote)
		if end < 0 {
			return 0, 0, 0, false
		}
		return at, i + 2, i + 2 + end, true
	}
}
