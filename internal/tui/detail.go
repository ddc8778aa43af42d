package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/newswave/internal/news"
)

const (
	unknownAuthorText = "Unknown Author"
	noContentText     = "Full content not available."
)

func detailBody(a news.Article) string {
	switch {
	case a.Content != "":
		return a.Content
	case a.Description != "":
		return a.Description
	default:
		return noContentText
	}
}

func renderDetail(a news.Article, width, height, scroll int) string {
	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	author := a.Author
	if author == "" {
		author = unknownAuthorText
	}
	meta := "By " + author
	if date := formatDate(a); date != "" {
		meta += " | " + date
	}

	title := detailTitleStyle.Width(contentWidth).Render(a.Title)
	byline := detailMetaStyle.Render(meta)
	source := detailSourceStyle.Render(a.Source.Name)
	body := detailBodyStyle.Width(contentWidth).Render(wrapText(detailBody(a), contentWidth))

	parts := []string{title, byline, source, "", body}
	if a.URL != "" {
		link := fmt.Sprintf("Read the full story on %s → %s", a.Source.Name, a.URL)
		parts = append(parts, "", detailLinkStyle.Width(contentWidth).Render(wrapText(link, contentWidth)))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
