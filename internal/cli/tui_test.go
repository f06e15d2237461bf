package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/screen"
)

func TestGenerateModelCollectsScreens(t *testing.T) {
	var m tea.Model = NewGenerateModel("Demo")

	m, _ = m.Update(screenDoneMsg{rec: screen.Record{ID: "screen-home", IsRoot: true}})
	m, _ = m.Update(screenDoneMsg{rec: screen.Record{ID: "screen-settings", GridColumn: 1}})

	view := m.View()
	if !strings.Contains(view, "screen-home") || !strings.Contains(view, "screen-settings") {
		t.Errorf("view missing screens:\n%s", view)
	}
	if !strings.Contains(view, "root") {
		t.Errorf("view missing root badge:\n%s", view)
	}
}

func TestGenerateModelDone(t *testing.T) {
	var m tea.Model = NewGenerateModel("Demo")

	m, _ = m.Update(screenDoneMsg{rec: screen.Record{ID: "screen-home"}})
	m, cmd := m.Update(generateDoneMsg{result: &pipeline.Result{}})

	if cmd == nil {
		t.Error("done message should quit the program")
	}
	gm := m.(GenerateModel)
	if !gm.done || gm.result == nil {
		t.Errorf("model not marked done: %+v", gm)
	}
	if gm.Cancelled() {
		t.Error("completed run reported as cancelled")
	}
}

func TestGenerateModelQuitKey(t *testing.T) {
	var m tea.Model = NewGenerateModel("Demo")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit the program")
	}
	if !m.(GenerateModel).Cancelled() {
		t.Error("quit before completion should report cancelled")
	}
}
