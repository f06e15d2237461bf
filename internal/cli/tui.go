package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/screen"
)

// List styles
var (
	listDoneStyle = lipgloss.NewStyle().Foreground(colorGreen)
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	listRootStyle = lipgloss.NewStyle().Foreground(colorCyan)
)

// tuiFrames are the spinner glyphs cycled by the status line.
var tuiFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// GenerateModel - Live view of a running generation
// =============================================================================

// screenDoneMsg is sent when the parser closes a screen.
type screenDoneMsg struct {
	rec screen.Record
}

// noteMsg is sent for conversational text between screens.
type noteMsg struct {
	text string
}

// generateDoneMsg is sent when the stream has been fully consumed.
type generateDoneMsg struct {
	result *pipeline.Result
	err    error
}

type tuiTickMsg struct{}

// GenerateModel is the bubbletea model shown while a generation streams in.
// Screens appear in the list as the parser completes them.
type GenerateModel struct {
	project string
	screens []screen.Record
	notes   []string
	frame   int
	done    bool
	quit    bool
	result  *pipeline.Result
	err     error
}

// NewGenerateModel creates a model for the named project.
func NewGenerateModel(project string) GenerateModel {
	return GenerateModel{project: project}
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return tuiTickMsg{}
	})
}

func (m GenerateModel) Init() tea.Cmd {
	return tuiTick()
}

func (m GenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
	case screenDoneMsg:
		m.screens = append(m.screens, msg.rec)
	case noteMsg:
		m.notes = append(m.notes, msg.text)
	case generateDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case tuiTickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tuiTick()
	}
	return m, nil
}

func (m GenerateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating " + m.project))
	b.WriteString("\n\n")

	for _, rec := range m.screens {
		line := listDoneStyle.Render(iconSuccess) + " " + StyleValue.Render(rec.ID)
		line += listDimStyle.Render(fmt.Sprintf("  [%d,%d]", rec.GridColumn, rec.GridRow))
		if rec.IsRoot {
			line += "  " + listRootStyle.Render("root")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if n := len(m.notes); n > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%d notes from the stream", n)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
	case m.done:
		b.WriteString(listDoneStyle.Render(fmt.Sprintf("Done, %d screens", len(m.screens))))
	default:
		frame := tuiFrames[m.frame%len(tuiFrames)]
		b.WriteString(styleIconSpinner.Render(frame) + " " + listDimStyle.Render("waiting for screens  (q to cancel)"))
	}
	b.WriteString("\n")

	return b.String()
}

// Cancelled reports whether the user quit before the stream finished.
func (m GenerateModel) Cancelled() bool {
	return m.quit && !m.done
}
