package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/newswave/internal/news"
)

// renderTabs draws the category row, stopping before it would overflow.
func renderTabs(active news.Category, width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	var row string
	for i, c := range news.Categories {
		style := tabInactiveStyle
		if c == active {
			style = tabActiveStyle
		}
		part := style.Render(c.Label())

		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

func nextCategory(c news.Category, step int) news.Category {
	n := len(news.Categories)
	i := c.Index()
	if i < 0 {
		return news.DefaultCategory
	}
	return news.Categories[((i+step)%n+n)%n]
}
