package stats

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/theme"
)

// Render draws the four statistics cards side by side. Narrow terminals
// get a single summary line instead.
func Render(s model.Stats, width int) string {
	cards := []struct {
		label string
		value string
	}{
		{"Total", fmt.Sprint(s.Total)},
		{"Active", fmt.Sprint(s.Active)},
		{"Completed", fmt.Sprint(s.Completed)},
		{"Rate", fmt.Sprintf("%d%%", s.CompletionRate)},
	}

	cardWidth := width/len(cards) - 2
	if cardWidth < 12 {
		return Line(s)
	}

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = theme.CardStyle.
			Width(cardWidth).
			Render(theme.CardValueStyle.Render(c.value) + "\n" + theme.DimmedStyle.Render(c.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Line is the one-line form of the statistics.
func Line(s model.Stats) string {
	return fmt.Sprintf(
		"%d total · %d active · %d completed · %d%% done",
		s.Total, s.Active, s.Completed, s.CompletionRate,
	)
}

// Height is the number of lines Render produces at width.
func Height(width int) int {
	if width/4-2 < 12 {
		return 1
	}
	return 4
}
