package parser

import (
	"strings"
	"testing"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/screen"
)

const sampleStream = "Here's your prototype!\n" +
	"PROJECT: Coffee Tracker\n" +
	"SCREEN_START: Home [0,0] [ROOT]\n" +
	`<div class="app"><a href="#screen-settings" data-flow="screen-settings">Settings</a></div>` + "\n" +
	"SCREEN_END\n" +
	"Now the settings view.\n" +
	"SCREEN_START: Settings [1,0]\n" +
	`<div class="app"><h1>Settings</h1></div>` + "\n" +
	"SCREEN_END\n" +
	"All done!\n"

// collect runs a full stream through a parser in the given chunk sizes and
// gathers records, messages, and the final report.
func collect(t *testing.T, stream string, chunkSize int) ([]screen.Record, []string, *Report) {
	t.Helper()
	p := New()
	var events []Event
	if chunkSize <= 0 {
		events = p.Feed(stream)
	} else {
		for i := 0; i < len(stream); i += chunkSize {
			end := min(i+chunkSize, len(stream))
			events = append(events, p.Feed(stream[i:end])...)
		}
	}
	final, report := p.Finish()
	events = append(events, final...)

	var records []screen.Record
	var messages []string
	for _, ev := range events {
		switch ev := ev.(type) {
		case ScreenCloseEvent:
			records = append(records, ev.Record)
		case MessageEvent:
			messages = append(messages, ev.Text)
		}
	}
	return records, messages, report
}

func TestParseSampleStream(t *testing.T) {
	records, messages, report := collect(t, sampleStream, 0)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	home := records[0]
	if home.ID != "screen-home" {
		t.Errorf("home.ID = %q, want %q", home.ID, "screen-home")
	}
	if !home.IsRoot {
		t.Error("home.IsRoot = false, want true")
	}
	if home.GridColumn != 0 || home.GridRow != 0 {
		t.Errorf("home position = (%d,%d), want (0,0)", home.GridColumn, home.GridRow)
	}
	if !strings.Contains(home.Body, `data-flow="screen-settings"`) {
		t.Errorf("home.Body missing flow attribute: %q", home.Body)
	}

	settings := records[1]
	if settings.ID != "screen-settings" {
		t.Errorf("settings.ID = %q, want %q", settings.ID, "screen-settings")
	}
	if settings.IsRoot {
		t.Error("settings.IsRoot = true, want false")
	}
	if settings.GridColumn != 1 || settings.GridRow != 0 {
		t.Errorf("settings position = (%d,%d), want (1,0)", settings.GridColumn, settings.GridRow)
	}
	if settings.SortOrder != 1 {
		t.Errorf("settings.SortOrder = %d, want 1", settings.SortOrder)
	}

	if report.ProjectName != "Coffee Tracker" {
		t.Errorf("ProjectName = %q, want %q", report.ProjectName, "Coffee Tracker")
	}
	if report.RootID != "screen-home" {
		t.Errorf("RootID = %q, want %q", report.RootID, "screen-home")
	}
	if report.Truncated {
		t.Error("Truncated = true, want false")
	}
	if len(report.Notices) != 0 {
		t.Errorf("Notices = %v, want none", report.Notices)
	}

	wantMessages := []string{"Here's your prototype!", "Now the settings view.", "All done!"}
	if len(messages) != len(wantMessages) {
		t.Fatalf("messages = %v, want %v", messages, wantMessages)
	}
	for i, want := range wantMessages {
		if messages[i] != want {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i], want)
		}
	}
}

// TestChunkBoundaryInvariance re-chunks the same stream at every size from 1
// byte upward and requires identical records and messages. This covers the
// nasty cases: splits inside "SCREEN_", inside "[0,0", and inside "SCREEN_EN".
func TestChunkBoundaryInvariance(t *testing.T) {
	wantRecords, wantMessages, wantReport := collect(t, sampleStream, 0)

	for size := 1; size <= 40; size++ {
		records, messages, report := collect(t, sampleStream, size)

		if len(records) != len(wantRecords) {
			t.Fatalf("chunk size %d: records = %d, want %d", size, len(records), len(wantRecords))
		}
		for i := range records {
			if records[i] != wantRecords[i] {
				t.Errorf("chunk size %d: records[%d] = %+v, want %+v", size, i, records[i], wantRecords[i])
			}
		}

		if len(messages) != len(wantMessages) {
			t.Fatalf("chunk size %d: messages = %v, want %v", size, messages, wantMessages)
		}
		for i := range messages {
			if messages[i] != wantMessages[i] {
				t.Errorf("chunk size %d: messages[%d] = %q, want %q", size, i, messages[i], wantMessages[i])
			}
		}

		if report.RootID != wantReport.RootID || report.Truncated != wantReport.Truncated {
			t.Errorf("chunk size %d: report = %+v, want %+v", size, report, wantReport)
		}
	}
}

func TestSplitInsideMarker(t *testing.T) {
	p := New()
	p.Feed("SCREEN_START: Home [0,0")
	if p.State() != StateAwaitingMarker {
		t.Errorf("State = %v, want StateAwaitingMarker", p.State())
	}
	p.Feed("] [ROOT]\nhello\nSCREEN_END")
	events, report := p.Finish()
	_ = events

	if report.ScreenCount != 1 {
		t.Fatalf("ScreenCount = %d, want 1", report.ScreenCount)
	}
	if report.RootID != "screen-home" {
		t.Errorf("RootID = %q, want screen-home", report.RootID)
	}
}

func TestDuplicateRoot(t *testing.T) {
	stream := "SCREEN_START: First [0,0] [ROOT]\na\nSCREEN_END\n" +
		"SCREEN_START: Second [1,0] [ROOT]\nb\nSCREEN_END\n"
	records, _, report := collect(t, stream, 0)

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].IsRoot {
		t.Error("first screen should keep the root marker")
	}
	if records[1].IsRoot {
		t.Error("second root marker should be ignored for IsRoot")
	}
	if report.RootID != "screen-first" {
		t.Errorf("RootID = %q, want screen-first", report.RootID)
	}
	if !hasNotice(report, errors.ErrCodeDuplicateRoot) {
		t.Errorf("expected DUPLICATE_ROOT notice, got %v", report.Notices)
	}
}

func TestMissingRoot(t *testing.T) {
	stream := "SCREEN_START: Only [0,0]\nbody\nSCREEN_END\n"
	_, _, report := collect(t, stream, 0)

	if !report.MissingRoot() {
		t.Error("MissingRoot() = false, want true")
	}
	if !hasNotice(report, errors.ErrCodeMissingRoot) {
		t.Errorf("expected MISSING_ROOT notice, got %v", report.Notices)
	}
}

func TestTruncatedScreen(t *testing.T) {
	stream := "SCREEN_START: Done [0,0] [ROOT]\nok\nSCREEN_END\n" +
		"SCREEN_START: Cut [1,0]\nthis body never en"
	records, _, report := collect(t, stream, 0)

	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (only the closed screen survives)", len(records))
	}
	if records[0].ID != "screen-done" {
		t.Errorf("surviving record = %q, want screen-done", records[0].ID)
	}
	if !report.Truncated {
		t.Error("Truncated = false, want true")
	}
	if report.TruncatedScreen != "Cut" {
		t.Errorf("TruncatedScreen = %q, want %q", report.TruncatedScreen, "Cut")
	}
	if !hasNotice(report, errors.ErrCodeTruncatedGeneration) {
		t.Errorf("expected TRUNCATED_GENERATION notice, got %v", report.Notices)
	}
}

func TestTruncatedMarker(t *testing.T) {
	_, _, report := collect(t, "SCREEN_START: Never finished [2,3", 0)
	if !report.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestDefaultSlotAssignment(t *testing.T) {
	// Second screen claims column 1 explicitly; defaults must skip it.
	stream := "SCREEN_START: A\na\nSCREEN_END\n" +
		"SCREEN_START: B [1,0]\nb\nSCREEN_END\n" +
		"SCREEN_START: C\nc\nSCREEN_END\n"
	records, _, _ := collect(t, stream, 0)

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].GridColumn != 0 || records[0].GridRow != 0 {
		t.Errorf("A = (%d,%d), want (0,0)", records[0].GridColumn, records[0].GridRow)
	}
	if records[2].GridColumn != 2 || records[2].GridRow != 0 {
		t.Errorf("C = (%d,%d), want (2,0): column 1 is taken", records[2].GridColumn, records[2].GridRow)
	}
}

func TestResumeContinuesProjectState(t *testing.T) {
	p := New()
	p.Resume([]screen.Record{
		{ID: "screen-home", GridColumn: 0, GridRow: 0, IsRoot: true, SortOrder: 0},
		{ID: "screen-settings", GridColumn: 1, GridRow: 0, SortOrder: 1},
	})

	stream := "SCREEN_START: Contact\nc\nSCREEN_END\n" +
		"SCREEN_START: About [3,0] [ROOT]\na\nSCREEN_END\n"
	events := p.Feed(stream)
	final, report := p.Finish()
	events = append(events, final...)

	var records []screen.Record
	for _, ev := range events {
		if ev, ok := ev.(ScreenCloseEvent); ok {
			records = append(records, ev.Record)
		}
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	// Columns 0 and 1 are already occupied by the stored screens.
	if records[0].GridColumn != 2 || records[0].GridRow != 0 {
		t.Errorf("Contact = (%d,%d), want (2,0)", records[0].GridColumn, records[0].GridRow)
	}

	// The stored root wins over a new claim.
	if records[1].IsRoot {
		t.Error("About's root claim should be rejected")
	}
	if !hasNotice(report, errors.ErrCodeDuplicateRoot) {
		t.Errorf("Notices = %v, want a duplicate-root notice", report.Notices)
	}
	if report.RootID != "screen-home" {
		t.Errorf("RootID = %q, want screen-home", report.RootID)
	}
	if report.MissingRoot() {
		t.Error("resumed stream reported a missing root")
	}
	if hasNotice(report, errors.ErrCodeMissingRoot) {
		t.Errorf("Notices = %v, want no missing-root notice", report.Notices)
	}
}

func TestNegativeCoordinates(t *testing.T) {
	stream := "SCREEN_START: Far [-3,-2] [ROOT]\nbody\nSCREEN_END\n"
	records, _, _ := collect(t, stream, 0)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].GridColumn != -3 || records[0].GridRow != -2 {
		t.Errorf("position = (%d,%d), want (-3,-2)", records[0].GridColumn, records[0].GridRow)
	}
}

func TestEditMarker(t *testing.T) {
	stream := "SCREEN_EDIT: Home [4,2]\n<p>new body</p>\nSCREEN_END\n"
	p := New()
	events := p.Feed(stream)
	final, _ := p.Finish()
	events = append(events, final...)

	var closeEv *ScreenCloseEvent
	for _, ev := range events {
		if c, ok := ev.(ScreenCloseEvent); ok {
			closeEv = &c
		}
	}
	if closeEv == nil {
		t.Fatal("no ScreenCloseEvent emitted")
	}
	if !closeEv.Edit {
		t.Error("Edit = false, want true")
	}
	if !closeEv.HasPos {
		t.Error("HasPos = false, want true")
	}
	if closeEv.Record.GridColumn != 4 || closeEv.Record.GridRow != 2 {
		t.Errorf("position = (%d,%d), want (4,2)", closeEv.Record.GridColumn, closeEv.Record.GridRow)
	}
	if closeEv.Record.Body != "<p>new body</p>" {
		t.Errorf("Body = %q", closeEv.Record.Body)
	}
}

func TestEditMarkerMissingPosition(t *testing.T) {
	stream := "SCREEN_EDIT: Home\nbody\nSCREEN_END\n"
	p := New()
	events := p.Feed(stream)
	_, report := p.Finish()

	var closeEv *ScreenCloseEvent
	for _, ev := range events {
		if c, ok := ev.(ScreenCloseEvent); ok {
			closeEv = &c
		}
	}
	if closeEv == nil {
		t.Fatal("no ScreenCloseEvent emitted")
	}
	if closeEv.HasPos {
		t.Error("HasPos = true, want false for an edit without position")
	}
	if !hasNotice(report, errors.ErrCodeInvalidMarker) {
		t.Errorf("expected INVALID_MARKER notice, got %v", report.Notices)
	}
}

func TestStrayScreenEnd(t *testing.T) {
	_, _, report := collect(t, "hello\nSCREEN_END\nmore text\n", 0)
	if !hasNotice(report, errors.ErrCodeInvalidMarker) {
		t.Errorf("expected INVALID_MARKER notice for stray SCREEN_END, got %v", report.Notices)
	}
	if report.ScreenCount != 0 {
		t.Errorf("ScreenCount = %d, want 0", report.ScreenCount)
	}
}

func TestBodyContainingBrackets(t *testing.T) {
	// Bracket syntax inside a body must not be parsed as marker attributes.
	stream := "SCREEN_START: List [0,0] [ROOT]\n<ul><li>[1,2]</li></ul>\nSCREEN_END\n"
	records, _, report := collect(t, stream, 0)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Body != "<ul><li>[1,2]</li></ul>" {
		t.Errorf("Body = %q", records[0].Body)
	}
	if len(report.Notices) != 0 {
		t.Errorf("Notices = %v, want none", report.Notices)
	}
}

func TestFeedAfterFinish(t *testing.T) {
	p := New()
	p.Feed("hello")
	p.Finish()
	if events := p.Feed("SCREEN_START: X [0,0]\n"); events != nil {
		t.Errorf("Feed after Finish = %v, want nil", events)
	}
}

func hasNotice(r *Report, code errors.Code) bool {
	for _, n := range r.Notices {
		if n.Code == code {
			return true
		}
	}
	return false
}
