package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tmarcher/scorebreak/pkg/render"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// Viewer styles
var (
	viewTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewHeaderStyle = lipgloss.NewStyle().Foreground(colorGray)
	viewSystemStyle = lipgloss.NewStyle().Foreground(colorWhite)
	viewHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DocumentModel - Page-by-page layout browser
// =============================================================================

// DocumentModel is the bubbletea model for browsing a planned layout
// one page at a time.
type DocumentModel struct {
	Doc  *render.Document
	Page int
}

// NewDocumentModel creates a viewer positioned on the first page.
func NewDocumentModel(doc *render.Document) DocumentModel {
	return DocumentModel{Doc: doc}
}

func (m DocumentModel) Init() tea.Cmd {
	return nil
}

func (m DocumentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l", "n":
		if m.Page < len(m.Doc.Pages)-1 {
			m.Page++
		}
	case "left", "h", "p":
		if m.Page > 0 {
			m.Page--
		}
	}
	return m, nil
}

func (m DocumentModel) View() string {
	if len(m.Doc.Pages) == 0 {
		return viewHelpStyle.Render("empty document") + "\n"
	}
	page := m.Doc.Pages[m.Page]

	var b strings.Builder
	b.WriteString(viewTitleStyle.Render(m.Doc.Title))
	b.WriteString(viewHeaderStyle.Render(fmt.Sprintf("  page %d/%d\n\n", m.Page+1, len(m.Doc.Pages))))

	for _, sys := range page.Systems {
		header := fmt.Sprintf("system %d  scale %s", sys.Index, score.FormatRat(sys.Scale.Rat))
		if sys.Gutter.Rat != nil && sys.Gutter.Sign() > 0 {
			header += fmt.Sprintf("  gutter %s", score.FormatRat(sys.Gutter.Rat))
		}
		b.WriteString(viewSystemStyle.Render(header))
		b.WriteString("\n")

		widths := make([]string, len(sys.Stacks))
		for i, stack := range sys.Stacks {
			widths[i] = score.FormatRat(stack.Width.Rat)
		}
		b.WriteString("  " + StyleDim.Render(strings.Join(widths, " | ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(viewHelpStyle.Render("←/→ pages · q quit"))
	b.WriteString("\n")
	return b.String()
}

// browseDocument runs the interactive page viewer until the user quits.
func browseDocument(doc *render.Document) error {
	if doc == nil {
		return nil
	}
	_, err := tea.NewProgram(NewDocumentModel(doc)).Run()
	return err
}
