package compose

import (
	"strings"
	"testing"

	"github.com/screenloom/screenloom/pkg/screen"
)

func sampleRecords() []screen.Record {
	return []screen.Record{
		{
			Name: "Home", ID: "screen-home", IsRoot: true, SortOrder: 0,
			Body: `<h1>Home</h1><a href="#screen-settings" data-flow="screen-settings">Settings</a>`,
		},
		{
			Name: "Settings", ID: "screen-settings", SortOrder: 1,
			Body: `<h1>Settings</h1><a href="#screen-home">Back</a>`,
		},
	}
}

func TestComposeRootOrderedLast(t *testing.T) {
	doc, report, err := Compose(sampleRecords(), screen.PlatformMobile, "Demo App")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if report.RootID != "screen-home" {
		t.Errorf("RootID = %q, want screen-home", report.RootID)
	}
	if report.MissingRoot || report.DuplicateRoot {
		t.Errorf("unexpected root flags: %+v", report)
	}
	if len(report.BrokenLinks) != 0 {
		t.Errorf("BrokenLinks = %+v, want none", report.BrokenLinks)
	}

	home := strings.Index(doc, `id="screen-home"`)
	settings := strings.Index(doc, `id="screen-settings"`)
	if home < 0 || settings < 0 {
		t.Fatalf("screen containers missing from document")
	}
	// The default screen must come last so :target ~ rules can hide it.
	if home < settings {
		t.Errorf("root screen not ordered last (home=%d, settings=%d)", home, settings)
	}
	if !strings.Contains(doc, ".screen:target ~ .screen.root{display:none;}") {
		t.Error("fragment-navigation CSS missing")
	}
	if !strings.Contains(doc, `class="screen root" id="screen-home"`) {
		t.Error("root screen not marked default-visible")
	}
	if strings.Contains(doc, "<script") {
		t.Error("composed document must be script-free")
	}
}

func TestComposeDeterministic(t *testing.T) {
	a, _, _ := Compose(sampleRecords(), screen.PlatformMobile, "Demo App")
	b, _, _ := Compose(sampleRecords(), screen.PlatformMobile, "Demo App")
	if a != b {
		t.Error("Compose is not byte-identical across runs")
	}

	// Input order must not matter.
	reversed := sampleRecords()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	c, _, _ := Compose(reversed, screen.PlatformMobile, "Demo App")
	if a != c {
		t.Error("Compose output depends on record input order")
	}
}

func TestComposeBrokenLink(t *testing.T) {
	records := []screen.Record{
		{
			Name: "Home", ID: "screen-home", IsRoot: true, SortOrder: 0,
			Body: `<a href="#screen-ghost">Ghost</a>`,
		},
	}
	doc, report, err := Compose(records, screen.PlatformMobile, "Demo")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(doc, "#screen-ghost") {
		t.Error("dangling fragment link left in output")
	}
	if !strings.Contains(doc, `href="#"`) {
		t.Error("dangling link not made inert")
	}
	if len(report.BrokenLinks) != 1 || report.BrokenLinks[0].Target != "screen-ghost" {
		t.Errorf("BrokenLinks = %+v, want one entry for screen-ghost", report.BrokenLinks)
	}
}

func TestComposeMissingRoot(t *testing.T) {
	records := []screen.Record{
		{Name: "B", ID: "screen-b", SortOrder: 1, Body: "<p>b</p>"},
		{Name: "A", ID: "screen-a", SortOrder: 0, Body: "<p>a</p>"},
	}
	_, report, err := Compose(records, screen.PlatformDesktop, "Demo")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !report.MissingRoot {
		t.Error("MissingRoot not reported")
	}
	if report.RootID != "screen-a" {
		t.Errorf("fallback RootID = %q, want screen-a (lowest sort order)", report.RootID)
	}
}

func TestComposeDuplicateRoot(t *testing.T) {
	records := []screen.Record{
		{Name: "A", ID: "screen-a", IsRoot: true, SortOrder: 0, Body: "<p>a</p>"},
		{Name: "B", ID: "screen-b", IsRoot: true, SortOrder: 1, Body: "<p>b</p>"},
	}
	_, report, err := Compose(records, screen.PlatformMobile, "Demo")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !report.DuplicateRoot {
		t.Error("DuplicateRoot not reported")
	}
	if report.RootID != "screen-a" {
		t.Errorf("RootID = %q, want first root by sort order", report.RootID)
	}
}

func TestComposeEmptySet(t *testing.T) {
	doc, report, err := Compose(nil, screen.PlatformMobile, "Empty")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if report.ScreenCount != 0 || report.MissingRoot {
		t.Errorf("report = %+v, want zero screens and no missing-root flag", report)
	}
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") || !strings.Contains(doc, "</html>") {
		t.Errorf("empty set should still compose a valid document:\n%s", doc)
	}
}

func TestComposeViewportMatchesPlatform(t *testing.T) {
	doc, _, _ := Compose(sampleRecords(), screen.PlatformDesktop, "Demo")
	p := screen.ProfileFor(screen.PlatformDesktop)
	if !strings.Contains(doc, `content="width=1280`) {
		t.Errorf("viewport meta does not match platform width %g:\n%s", p.CellWidth, doc[:400])
	}
}

func TestComposeEscapesProjectName(t *testing.T) {
	doc, _, _ := Compose(nil, screen.PlatformMobile, `<b>"Demo"</b>`)
	if strings.Contains(doc, "<b>") {
		t.Error("project name not escaped in title")
	}
}
