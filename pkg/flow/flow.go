// Package flow extracts the directed navigation graph from finalized screen
// markup.
//
// A screen declares a navigation intent by carrying a data-flow attribute
// whose value names the target screen (either a derived id like
// "screen-settings" or a plain screen name). Extraction runs exactly when a
// screen's record is finalized or replaced - never on partial body text, so
// mid-stream markup can't produce transient false edges.
//
// Edges are recomputed from scratch each time a screen changes; the previous
// edge set for that source screen is fully replaced, never merged, so stale
// edges cannot accumulate.
package flow

import (
	"strings"

	"github.com/screenloom/screenloom/pkg/screen"
)

// Edge is one directed navigation intent between two screens.
//
// ElementDescriptor is a free-text hint identifying the triggering element
// (tag name plus its id attribute when present, e.g. "a#open-settings").
// It distinguishes multiple arrows between the same screen pair and keys the
// renderer's element-rectangle lookups; it is not required for correctness.
type Edge struct {
	FromScreenID      string `json:"from_screen_id" bson:"from_screen_id"`
	ToScreenID        string `json:"to_screen_id" bson:"to_screen_id"`
	ElementDescriptor string `json:"element_descriptor,omitempty" bson:"element_descriptor,omitempty"`
}

// flowAttr marks an element as a navigation trigger.
const flowAttr = "data-flow"

// Extract scans a finalized body for navigation-intent attributes and
// returns one edge per occurrence, in document order, with FromScreenID
// fixed to screenID. Identical (from, to) pairs with different element
// descriptors are kept as distinct edges - each is its own visual arrow.
//
// Extract is pure and reentrant; it may be memoized per (screenID, body).
func Extract(screenID, body string) []Edge {
	var edges []Edge
	for pos := 0; ; {
		rel := strings.Index(body[pos:], flowAttr)
		if rel < 0 {
			return edges
		}
		at := pos + rel
		pos = at + len(flowAttr)

		target, next, ok := attrValue(body, pos)
		if !ok {
			continue
		}
		pos = next

		edges = append(edges, Edge{
			FromScreenID:      screenID,
			ToScreenID:        screen.NormalizeTarget(target),
			ElementDescriptor: describeElement(body, at),
		})
	}
}

// Validate partitions edges into those whose target resolves to a known
// screen id and those that dangle. Dangling edges must be dropped and
// reported before persistence - never silently kept.
func Validate(edges []Edge, knownIDs map[string]bool) (kept, dropped []Edge) {
	for _, e := range edges {
		if knownIDs[e.ToScreenID] {
			kept = append(kept, e)
		} else {
			dropped = append(dropped, e)
		}
	}
	return kept, dropped
}

// KnownIDs builds the id membership set for Validate from a record set.
func KnownIDs(records []screen.Record) map[string]bool {
	ids := make(map[string]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}
	return ids
}

// attrValue reads an attribute value starting at the position right after
// the attribute name: optional spaces, '=', optional spaces, then a quoted
// string. Returns the value and the position after the closing quote.
func attrValue(s string, pos int) (string, int, bool) {
	i := skipSpaces(s, pos)
	if i >= len(s) || s[i] != '=' {
		return "", pos, false
	}
	i = skipSpaces(s, i+1)
	if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
		return "", pos, false
	}
	quote := s[i]
	end := strings.IndexByte(s[i+1:], quote)
	if end < 0 {
		return "", pos, false
	}
	return s[i+1 : i+1+end], i + 1 + end + 1, true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// describeElement builds the element descriptor for the tag containing the
// attribute at position at: the tag name, plus "#id" when the tag has an id
// attribute. Returns "" when no enclosing tag can be found.
func describeElement(s string, at int) string {
	open := strings.LastIndexByte(s[:at], '<')
	if open < 0 {
		return ""
	}
	gt := strings.IndexByte(s[open:], '>')
	var tag string
	if gt < 0 {
		tag = s[open:]
	} else {
		tag = s[open : open+gt+1]
	}

	// Tag name: letters/digits directly after '<'.
	nameEnd := 1
	for nameEnd < len(tag) && isNameChar(tag[nameEnd]) {
		nameEnd++
	}
	name := strings.ToLower(tag[1:nameEnd])
	if name == "" {
		return ""
	}

	if idVal, ok := tagAttr(tag, "id"); ok && idVal != "" {
		return name + "#" + idVal
	}
	return name
}

// tagAttr finds a named attribute inside a single tag string.
func tagAttr(tag, name string) (string, bool) {
	for pos := 0; ; {
		rel := strings.Index(tag[pos:], name)
		if rel < 0 {
			return "", false
		}
		at := pos + rel
		pos = at + len(name)

		// Must be a standalone attribute name, not part of another word.
		if at > 0 && isNameChar(tag[at-1]) {
			continue
		}
		if v, _, ok := attrValue(tag, at+len(name)); ok {
			return v, true
		}
	}
}

func isNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-'
}
