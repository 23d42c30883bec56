package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TemplatePickerModel - Interactive template selection
// =============================================================================

// templateEntry is one selectable row in the picker.
type templateEntry struct {
	Name     string
	Version  string // highest published version
	Extends  string
	Files    int
	Versions int
}

// TemplatePickerModel is the bubbletea model for interactive template
// selection in "templar new".
type TemplatePickerModel struct {
	Templates []templateEntry
	Cursor    int
	Selected  *templateEntry
	Height    int
	Offset    int
}

// NewTemplatePickerModel creates a new template picker model.
func NewTemplatePickerModel(templates []templateEntry) TemplatePickerModel {
	return TemplatePickerModel{
		Templates: templates,
		Height:    15,
	}
}

func (m TemplatePickerModel) Init() tea.Cmd {
	return nil
}

func (m TemplatePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Templates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			entry := m.Templates[m.Cursor]
			m.Selected = &entry
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TemplatePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Template"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Templates) {
		end = len(m.Templates)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		entry := m.Templates[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		extends := entry.Extends
		if extends == "" {
			extends = "—"
		}

		rows = append(rows, []string{
			cursor,
			entry.Name,
			entry.Version,
			extends,
			fmt.Sprintf("%d", entry.Files),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Template", "Latest", "Extends", "Files").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Templates))))

	return b.String()
}
