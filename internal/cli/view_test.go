package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmarcher/scorebreak/pkg/render"
	"github.com/tmarcher/scorebreak/pkg/score"
)

func testViewerDocument() *render.Document {
	system := func(idx int) render.System {
		return render.System{
			Index: idx,
			Scale: score.NewRatValue(score.R(1, 1)),
			Stacks: []render.StackBox{
				{Index: 0, Width: score.NewRatValue(score.R(2, 1))},
				{Index: 1, Width: score.NewRatValue(score.R(5, 2))},
			},
		}
	}
	return &render.Document{
		Title:      "Sonata",
		PageWidth:  score.NewRatValue(score.R(4, 1)),
		PageHeight: score.NewRatValue(score.R(8, 1)),
		Pages: []render.Page{
			{Index: 0, Systems: []render.System{system(0)}},
			{Index: 1, Systems: []render.System{system(1)}},
		},
	}
}

func TestDocumentModelView(t *testing.T) {
	m := NewDocumentModel(testViewerDocument())
	out := m.View()
	if !strings.Contains(out, "Sonata") {
		t.Error("missing title")
	}
	if !strings.Contains(out, "page 1/2") {
		t.Errorf("missing page indicator in %q", out)
	}
	if !strings.Contains(out, "5/2") {
		t.Error("missing exact stack width")
	}
}

func TestDocumentModelNavigation(t *testing.T) {
	var m tea.Model = NewDocumentModel(testViewerDocument())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.(DocumentModel).Page != 1 {
		t.Errorf("page = %d after right", m.(DocumentModel).Page)
	}
	// Clamp at the last page.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.(DocumentModel).Page != 1 {
		t.Errorf("page = %d after right past end", m.(DocumentModel).Page)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.(DocumentModel).Page != 0 {
		t.Errorf("page = %d after left", m.(DocumentModel).Page)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit")
	}
}
