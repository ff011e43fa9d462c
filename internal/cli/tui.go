package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stemma/pkg/store"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listFilterStyle = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// TreeListModel - Interactive tree selection
// =============================================================================

// TreeListModel is the bubbletea model for picking a stored tree. Typing
// filters the list by name.
type TreeListModel struct {
	Trees    []store.Summary
	Cursor   int
	Selected *store.Summary
	Height   int
	Offset   int
	Filter   string

	visible []store.Summary
}

// NewTreeListModel creates a new tree list model.
func NewTreeListModel(trees []store.Summary) TreeListModel {
	m := TreeListModel{Trees: trees, Height: 15}
	m.visible = trees
	return m
}

func (m TreeListModel) Init() tea.Cmd {
	return nil
}

func (m TreeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			sel := m.visible[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.applyFilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *TreeListModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.visible) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *TreeListModel) applyFilter() {
	m.Cursor, m.Offset = 0, 0
	if m.Filter == "" {
		m.visible = m.Trees
		return
	}
	needle := strings.ToLower(m.Filter)
	m.visible = nil
	for _, t := range m.Trees {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			m.visible = append(m.visible, t)
		}
	}
}

func (m TreeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(listFilterStyle.Render("filter: " + m.Filter))
	}
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matching trees"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.visible))
	b.WriteString(treeTable(m.visible[m.Offset:end], m.Offset, m.Cursor))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))

	return b.String()
}

// pickTree runs the picker and returns the chosen tree, or nil when the
// user quit without choosing.
func pickTree(trees []store.Summary) (*store.Summary, error) {
	final, err := tea.NewProgram(NewTreeListModel(trees)).Run()
	if err != nil {
		return nil, err
	}
	return final.(TreeListModel).Selected, nil
}
