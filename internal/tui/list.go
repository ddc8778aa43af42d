package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/mattn/go-runewidth"
)

const (
	emptyListText = "No articles found. Try a different search or category."
	noSummaryText = "No summary available."

	// title, meta, summary and a blank separator
	itemHeight = 4
)

func formatDate(a news.Article) string {
	if t, ok := a.Published(); ok {
		return t.Local().Format("January 2, 2006")
	}
	return a.PublishedAt
}

func renderListItem(a news.Article, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(a.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(a.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(a.Source.Name)
	if date := formatDate(a); date != "" {
		meta += " " + itemTimeStyle.Render("· "+date)
	}

	desc := a.Description
	if desc == "" {
		desc = noSummaryText
	}
	summary := "  " + itemDescStyle.Render(truncateStr(strings.Join(strings.Fields(desc), " "), width-4))

	return title + "\n" + meta + "\n" + summary
}

// truncateStr cuts s to n terminal cells, marking the cut with "...".
func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return runewidth.Truncate(s, n, "")
	}
	return runewidth.Truncate(s, n, "...")
}

func renderList(articles []news.Article, cursor int, height int, width int) string {
	if len(articles) == 0 {
		return centered(emptyStyle.Render(emptyListText), width, height)
	}

	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	// Calculate scroll offset
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(articles) {
		end = len(articles)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(articles[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func centered(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, s)
}
