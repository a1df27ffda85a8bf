package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TreeListModel - Interactive configuration tree browser
// =============================================================================

// TreeListModel is the bubbletea model for browsing configuration trees.
// The table lists every tree; the files of the tree under the cursor are
// shown below it.
type TreeListModel struct {
	Trees  []treeView
	Cursor int
	Height int
	Offset int
}

// NewTreeListModel creates a new tree list model.
func NewTreeListModel(trees []treeView) TreeListModel {
	return TreeListModel{
		Trees:  trees,
		Height: 10,
	}
}

func (m TreeListModel) Init() tea.Cmd {
	return nil
}

func (m TreeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Trees)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height/2 - 4
		if m.Height < 3 {
			m.Height = 3
		}
	}
	return m, nil
}

func (m TreeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Configuration Trees"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	if len(m.Trees) == 0 {
		b.WriteString(listDimStyle.Render(msgNoConfigs))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Trees))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		t := m.Trees[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(i + 1),
			firstOr(t.RootFiles, "—"),
			strconv.Itoa(len(t.RootFiles)),
			strconv.Itoa(len(t.AllFiles)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Root", "Roots", "Files").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 3 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n\n")

	t := m.Trees[m.Cursor]
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Tree %d", m.Cursor+1)))
	b.WriteString("\n")
	for _, f := range t.AllFiles {
		if t.isRoot(f) {
			b.WriteString("  " + StyleHighlight.Render(iconRoot) + " " + listNormalStyle.Render(f))
		} else {
			b.WriteString("  " + listDimStyle.Render(iconMember+" "+f))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Trees))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func firstOr(s []string, fallback string) string {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}
