// Package parser implements the incremental delimiter parser that turns a
// model's raw token stream into screen records and author messages.
//
// The producer delivers text in chunks of arbitrary size and boundary - a
// single marker token may be split across two chunks. The parser maintains an
// accumulation buffer and a small state machine so that any re-chunking of
// the same total text produces the identical sequence of finalized records
// and messages. Chunk boundaries never affect output.
//
// # Marker grammar
//
// Open markers are line-oriented (terminated by a newline); the close marker
// is a literal token:
//
//	PROJECT: <name>                            project header (outside screens)
//	SCREEN_START: <name> [<col>,<row>] [ROOT]  open a new screen
//	SCREEN_EDIT: <name> [<col>,<row>]          replace an existing screen
//	SCREEN_END                                 finalize the open screen
//
// The grid position and [ROOT] sub-tokens may appear in either order after
// the name. The position is optional on SCREEN_START (the parser assigns the
// next unused column in row 0) and mandatory on SCREEN_EDIT, where omitting
// it is reported but the edit is still carried through with the screen's
// previous position preserved.
//
// # Usage
//
//	p := parser.New()
//	for chunk := range chunks {
//	    for _, ev := range p.Feed(chunk) {
//	        // handle HeaderEvent, MessageEvent, ScreenOpenEvent,
//	        // BodyEvent, ScreenCloseEvent
//	    }
//	}
//	events, report := p.Finish()
//
// Feed never blocks: each call either makes progress and returns events, or
// buffers a partial marker and returns. Finish is the explicit end-of-stream
// signal; screens that closed before a truncation remain valid.
//
// A Parser is not safe for concurrent use. Streams for different projects
// are independent and may be parsed concurrently with separate Parsers.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/screen"
)

// Marker tokens. tokEnd is matched anywhere; the others consume the rest of
// their line.
const (
	tokProject = "PROJECT:"
	tokStart   = "SCREEN_START:"
	tokEdit    = "SCREEN_EDIT:"
	tokEnd     = "SCREEN_END"
)

var scanTokens = []string{tokProject, tokStart, tokEdit, tokEnd}

// State identifies the parser's position in the stream.
type State int

const (
	// StateScanning means the parser is outside any screen, collecting
	// header lines and free-form author messages.
	StateScanning State = iota
	// StateAwaitingMarker means a marker token has been seen but its line
	// is not yet complete; the parser is holding it buffered.
	StateAwaitingMarker
	// StateInScreen means a screen is open and body text is accumulating.
	StateInScreen
)

// Event is one parse result emitted by Feed or Finish.
// Concrete types: HeaderEvent, MessageEvent, ScreenOpenEvent, BodyEvent,
// ScreenCloseEvent.
type Event interface{ isEvent() }

// HeaderEvent carries a project-level header update (the PROJECT: line).
type HeaderEvent struct {
	Project string
}

// MessageEvent carries one free-form author message: the contiguous
// non-marker text between two markers (or before the first / after the
// last). Messages are coalesced per gap so their content is independent of
// chunk boundaries.
type MessageEvent struct {
	Text string
}

// ScreenOpenEvent signals that a screen marker was fully classified.
type ScreenOpenEvent struct {
	Name   string
	ID     string
	Col    int
	Row    int
	HasPos bool // false only for malformed SCREEN_EDIT markers missing their position
	Root   bool
	Edit   bool // replace-existing variant
}

// BodyEvent carries a body text delta for the open screen. Delta boundaries
// follow chunk boundaries; only the concatenation is meaningful.
type BodyEvent struct {
	ScreenID string
	Text     string
}

// ScreenCloseEvent finalizes a screen. Record is complete and immutable.
// Edit tells the persistence layer to overwrite by id rather than insert;
// HasPos is false when the marker carried no position (the previous position
// should be preserved on replace).
type ScreenCloseEvent struct {
	Record screen.Record
	Edit   bool
	HasPos bool
}

func (HeaderEvent) isEvent()      {}
func (MessageEvent) isEvent()     {}
func (ScreenOpenEvent) isEvent()  {}
func (BodyEvent) isEvent()        {}
func (ScreenCloseEvent) isEvent() {}

// Notice is one integrity or well-formedness finding reported alongside the
// parsed output. Notices never abort parsing.
type Notice struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Report summarizes a finished stream.
type Report struct {
	ProjectName     string   `json:"project_name,omitempty"`
	ScreenCount     int      `json:"screen_count"`
	RootID          string   `json:"root_id,omitempty"`
	Truncated       bool     `json:"truncated"`
	TruncatedScreen string   `json:"truncated_screen,omitempty"`
	Notices         []Notice `json:"notices,omitempty"`
}

// MissingRoot reports whether the finished stream produced screens but no
// root marker.
func (r *Report) MissingRoot() bool {
	return r.ScreenCount > 0 && r.RootID == ""
}

// openScreen tracks the screen currently being accumulated.
type openScreen struct {
	name   string
	id     string
	col    int
	row    int
	hasPos bool
	root   bool
	edit   bool
	body   strings.Builder
}

// Parser is the resumable state machine. The zero value is not usable; use
// New.
type Parser struct {
	buf      strings.Builder // unconsumed tail of the stream
	state    State
	cur      *openScreen
	msg      strings.Builder // pending message text for the current gap
	project  string
	seenRoot bool
	rootID   string
	usedCols map[int]bool // row-0 columns taken, for default slot assignment
	nextSort int
	untitled int
	notices  []Notice
	finished bool
}

// New creates an empty parser in the scanning state.
func New() *Parser {
	return &Parser{usedCols: make(map[int]bool)}
}

// Resume primes a fresh parser with previously persisted screens so a
// follow-up stream extends the project instead of restarting it: row-0
// columns already occupied are excluded from default slot assignment, and an
// existing root both rejects new root claims and satisfies the missing-root
// check. Resume must be called before the first Feed.
func (p *Parser) Resume(records []screen.Record) {
	for _, rec := range records {
		if rec.GridRow == 0 && rec.GridColumn >= 0 {
			p.usedCols[rec.GridColumn] = true
		}
		if rec.IsRoot && !p.seenRoot {
			p.seenRoot = true
			p.rootID = rec.ID
		}
	}
}

// State returns the parser's current state.
func (p *Parser) State() State { return p.state }

// Feed appends a chunk and greedily extracts every fully-formed
// marker-delimited unit the buffer now contains, in left-to-right order.
// Any trailing partial marker stays buffered for the next chunk. Feed after
// Finish returns nil.
func (p *Parser) Feed(chunk string) []Event {
	if p.finished || chunk == "" {
		return nil
	}
	p.buf.WriteString(chunk)

	var events []Event
	for {
		made, evs := p.step()
		events = append(events, evs...)
		if !made {
			return events
		}
	}
}

// Finish signals end-of-stream. It flushes any pending message, reports an
// unterminated marker or screen as a truncated generation, and checks root
// integrity. Screens finalized before a truncation remain valid.
func (p *Parser) Finish() ([]Event, *Report) {
	if p.finished {
		return nil, p.report()
	}
	p.finished = true

	var events []Event
	report := p.report()

	switch p.state {
	case StateScanning:
		// Anything still buffered is a prefix of a marker token. A long
		// prefix (at least "SCREEN_") is almost certainly a cut-off
		// marker; a short one is just trailing prose.
		if held := p.buf.String(); held != "" {
			if len(held) >= len("SCREEN_") {
				p.notice(errors.ErrCodeInvalidMarker, "partial marker %q at end of stream", held)
			} else {
				p.msg.WriteString(held)
			}
		}
		if ev, ok := p.flushMessage(); ok {
			events = append(events, ev)
		}
	case StateAwaitingMarker:
		report.Truncated = true
		p.notice(errors.ErrCodeTruncatedGeneration, "unterminated marker at end of stream: %q", truncateForNotice(p.buf.String()))
	case StateInScreen:
		report.Truncated = true
		report.TruncatedScreen = p.cur.name
		p.notice(errors.ErrCodeTruncatedGeneration, "screen %q was never closed; generation appears truncated", p.cur.name)
	}

	if report.ScreenCount > 0 && report.RootID == "" {
		p.notice(errors.ErrCodeMissingRoot, "no screen carries the root marker; the project has no entry point")
	}

	report.Notices = p.notices
	return events, report
}

func (p *Parser) report() *Report {
	return &Report{
		ProjectName: p.project,
		ScreenCount: p.nextSort,
		RootID:      p.rootID,
		Notices:     p.notices,
	}
}

// step attempts to consume one unit from the buffer. It returns false when no
// further progress is possible without more input.
func (p *Parser) step() (bool, []Event) {
	if p.state == StateInScreen {
		return p.stepInScreen()
	}
	return p.stepScanning()
}

// stepScanning consumes message text and classifies the next marker.
func (p *Parser) stepScanning() (bool, []Event) {
	s := p.buf.String()
	idx, tok := indexOfAny(s, scanTokens)
	if idx < 0 {
		// No complete token: emit everything except a tail that could
		// still grow into one.
		hold := holdback(s, scanTokens)
		if len(s) > hold {
			p.msg.WriteString(s[:len(s)-hold])
			p.setBuf(s[len(s)-hold:])
		}
		p.state = StateScanning
		return false, nil
	}

	if tok == tokEnd {
		// Stray close marker outside any screen.
		p.msg.WriteString(s[:idx])
		p.setBuf(s[idx+len(tok):])
		p.notice(errors.ErrCodeInvalidMarker, "SCREEN_END outside any open screen")
		return true, nil
	}

	// Line-oriented marker: need the full line before classifying.
	nl := strings.IndexByte(s[idx:], '\n')
	if nl < 0 {
		p.msg.WriteString(s[:idx])
		p.setBuf(s[idx:])
		p.state = StateAwaitingMarker
		return false, nil
	}

	p.msg.WriteString(s[:idx])
	line := strings.TrimSuffix(s[idx:idx+nl], "\r")
	p.setBuf(s[idx+nl+1:])
	p.state = StateScanning

	var events []Event
	if ev, ok := p.flushMessage(); ok {
		events = append(events, ev)
	}

	switch tok {
	case tokProject:
		p.project = strings.TrimSpace(line[len(tokProject):])
		events = append(events, HeaderEvent{Project: p.project})
	case tokStart:
		events = append(events, p.openScreenFrom(line[len(tokStart):], false))
	case tokEdit:
		events = append(events, p.openScreenFrom(line[len(tokEdit):], true))
	}
	return true, events
}

// stepInScreen accumulates body text until the close marker.
func (p *Parser) stepInScreen() (bool, []Event) {
	s := p.buf.String()
	idx := strings.Index(s, tokEnd)
	if idx < 0 {
		hold := holdback(s, []string{tokEnd})
		var events []Event
		if len(s) > hold {
			delta := s[:len(s)-hold]
			p.cur.body.WriteString(delta)
			p.setBuf(s[len(s)-hold:])
			events = append(events, BodyEvent{ScreenID: p.cur.id, Text: delta})
		}
		return false, events
	}

	var events []Event
	if idx > 0 {
		p.cur.body.WriteString(s[:idx])
		events = append(events, BodyEvent{ScreenID: p.cur.id, Text: s[:idx]})
	}
	p.setBuf(s[idx+len(tokEnd):])

	rec := screen.Record{
		Name:       p.cur.name,
		ID:         p.cur.id,
		GridColumn: p.cur.col,
		GridRow:    p.cur.row,
		IsRoot:     p.cur.root,
		Body:       strings.TrimSpace(p.cur.body.String()),
		SortOrder:  p.nextSort,
	}
	p.nextSort++
	events = append(events, ScreenCloseEvent{Record: rec, Edit: p.cur.edit, HasPos: p.cur.hasPos})

	p.cur = nil
	p.state = StateScanning
	return true, events
}

// openScreenFrom parses the remainder of an open-marker line and transitions
// into the screen body.
func (p *Parser) openScreenFrom(rest string, edit bool) Event {
	name, col, row, hasPos, root := parseMarkerAttrs(rest, func(code errors.Code, format string, args ...any) {
		p.notice(code, format, args...)
	})

	if err := errors.ValidateScreenName(name); err != nil {
		p.notice(errors.ErrCodeInvalidMarker, "bad screen name in marker: %s", errors.UserMessage(err))
		p.untitled++
		name = fmt.Sprintf("Untitled %d", p.untitled)
	}
	id := screen.DeriveID(name)

	if root {
		if p.seenRoot {
			p.notice(errors.ErrCodeDuplicateRoot, "second root marker on %q ignored; %q remains the root", name, p.rootID)
			root = false
		} else {
			p.seenRoot = true
			p.rootID = id
		}
	}

	switch {
	case hasPos:
		if row == 0 {
			p.usedCols[col] = true
		}
	case edit:
		// Position is mandatory on edits so screens can be repositioned.
		// Report it, keep the edit, and let persistence retain the
		// previous position.
		p.notice(errors.ErrCodeInvalidMarker, "edit marker for %q is missing its grid position", name)
	default:
		col, row = p.nextFreeSlot(), 0
		hasPos = true
	}

	p.cur = &openScreen{
		name:   name,
		id:     id,
		col:    col,
		row:    row,
		hasPos: hasPos,
		root:   root,
		edit:   edit,
	}
	p.state = StateInScreen

	return ScreenOpenEvent{
		Name:   name,
		ID:     id,
		Col:    col,
		Row:    row,
		HasPos: hasPos,
		Root:   root,
		Edit:   edit,
	}
}

// nextFreeSlot returns the lowest non-negative row-0 column not yet claimed
// and marks it used.
func (p *Parser) nextFreeSlot() int {
	for c := 0; ; c++ {
		if !p.usedCols[c] {
			p.usedCols[c] = true
			return c
		}
	}
}

func (p *Parser) flushMessage() (Event, bool) {
	text := strings.TrimSpace(p.msg.String())
	p.msg.Reset()
	if text == "" {
		return nil, false
	}
	return MessageEvent{Text: text}, true
}

func (p *Parser) notice(code errors.Code, format string, args ...any) {
	p.notices = append(p.notices, Notice{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) setBuf(s string) {
	p.buf.Reset()
	p.buf.WriteString(s)
}

// parseMarkerAttrs splits an open-marker line remainder into the screen name
// and its bracketed sub-tokens ([col,row] and [ROOT], in either order).
// Unrecognized bracket groups are reported via warn and dropped.
func parseMarkerAttrs(rest string, warn func(errors.Code, string, ...any)) (name string, col, row int, hasPos, root bool) {
	var nameParts strings.Builder
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			nameParts.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], ']')
		if closing < 0 {
			// Unclosed group on a complete line: keep as name text.
			nameParts.WriteString(rest)
			break
		}
		nameParts.WriteString(rest[:open])
		inner := strings.TrimSpace(rest[open+1 : open+closing])
		rest = rest[open+closing+1:]

		if strings.EqualFold(inner, "ROOT") {
			root = true
			continue
		}
		if c, r, ok := parseGridPos(inner); ok {
			col, row, hasPos = c, r, true
			continue
		}
		warn(errors.ErrCodeInvalidMarker, "unrecognized marker attribute %q", "["+inner+"]")
	}
	return strings.TrimSpace(nameParts.String()), col, row, hasPos, root
}

// parseGridPos parses "col,row" with optional spaces. Both values are signed.
func parseGridPos(s string) (col, row int, ok bool) {
	c, r, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return 0, 0, false
	}
	row, err = strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return 0, 0, false
	}
	return col, row, true
}

// indexOfAny returns the earliest index at which any of the tokens occurs,
// and which token it was. Returns -1 if none occur.
func indexOfAny(s string, tokens []string) (int, string) {
	best, bestTok := -1, ""
	for _, t := range tokens {
		if i := strings.Index(s, t); i >= 0 && (best < 0 || i < best) {
			best, bestTok = i, t
		}
	}
	return best, bestTok
}

// holdback returns the length of the longest suffix of s that is a proper
// prefix of any token. That suffix must stay buffered: the next chunk may
// complete it into a marker.
func holdback(s string, tokens []string) int {
	held := 0
	for _, t := range tokens {
		limit := min(len(t)-1, len(s))
		for k := limit; k > held; k-- {
			if strings.HasSuffix(s, t[:k]) {
				held = k
				break
			}
		}
	}
	return held
}

func truncateForNotice(s string) string {
	const limit = 60
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
