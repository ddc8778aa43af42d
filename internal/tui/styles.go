package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#38BDF8"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#CBD5E1"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#64748B"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#F472B6"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorErrorBg   = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#450A0A"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#334155"}
	colorTabActive = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#0284C7"}
	colorTabBg     = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#1E293B"}
	colorSurface   = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#0F172A"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#1E293B"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#94A3B8"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#34D399"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerDateStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Right)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	itemTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	itemSourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	itemTimeStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	itemDescStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	detailMetaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	detailSourceStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	detailBodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	detailLinkStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorTabActive).
			Padding(0, 1).
			Bold(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Background(colorTabBg).
				Padding(0, 1)

	tabSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Background(colorErrorBg).
			Padding(1, 2)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)
)
