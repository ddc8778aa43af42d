package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/matheuskafuri/newswave/internal/reader"
)

type statusInfo struct {
	mode      reader.Mode
	category  news.Category
	shown     int
	total     int
	search    string
	searching bool
	notice    string
}

func renderStatusBar(info statusInfo, keys keyMap, width int) string {
	var left string
	switch info.mode {
	case reader.ModeLoading:
		left = fmt.Sprintf(" %s · loading", info.category.Label())
	case reader.ModeError:
		left = fmt.Sprintf(" %s · failed", info.category.Label())
	default:
		if info.shown == info.total {
			left = fmt.Sprintf(" %d articles · %s", info.total, info.category.Label())
		} else {
			left = fmt.Sprintf(" %d of %d articles · %s", info.shown, info.total, info.category.Label())
		}
		if info.search != "" {
			left += fmt.Sprintf(" · %q", info.search)
		}
	}
	if info.notice != "" {
		left += " · " + noticeStyle.Render(info.notice)
	}

	var right string
	switch {
	case info.searching:
		right = "esc clear  enter done"
	case info.mode == reader.ModeDetail:
		right = hint(keys.Back, keys.Up, keys.OpenBrowser, keys.Quit)
	case info.mode == reader.ModeList:
		right = hint(keys.Select, keys.Search, keys.NextCategory, keys.OpenBrowser, keys.Quit)
	default:
		right = hint(keys.NextCategory, keys.Refresh, keys.Quit)
	}
	right = " " + right + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
