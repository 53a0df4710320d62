package commands

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cbegin/solfa-go"
)

var (
	measureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	beatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	subStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f56"))
)

// beatBar renders one measure with the current tick highlighted by its
// accent tier.
func beatBar(measureLength, current int, role solfa.Role) string {
	cells := make([]string, measureLength)
	for i := range cells {
		cells[i] = subStyle.Render("·")
	}
	if current >= 0 && current < measureLength {
		switch role {
		case solfa.RoleMeasureDownbeat:
			cells[current] = measureStyle.Render("●")
		case solfa.RoleBeatDownbeat:
			cells[current] = beatStyle.Render("●")
		default:
			cells[current] = subStyle.Render("○")
		}
	}
	return strings.Join(cells, " ")
}

func header(cfg solfa.TempoConfig) string {
	return titleStyle.Render("solfa") + helpStyle.Render("["+cfg.String()+"]")
}
