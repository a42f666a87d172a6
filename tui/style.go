package tui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Sidebar        lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarCursor  lipgloss.Style
	SidebarActive  lipgloss.Style
	Transcript     lipgloss.Style
	Input          lipgloss.Style
	Keyword        lipgloss.Style
	KeywordActive  lipgloss.Style
	KeywordFocused lipgloss.Style
	Status         lipgloss.Style
	Warning        lipgloss.Style
	Help           lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Selected:   "#FFB6C1", // Light pink
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Selected:   "#DD7090", // Desaturated pink for dark mode
	}

	border := lipgloss.AdaptiveColor{Light: lightModeColors.Unselected, Dark: darkModeColors.Unselected}
	selected := lipgloss.AdaptiveColor{Light: lightModeColors.Selected, Dark: darkModeColors.Selected}
	dim := lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}

	return &Style{
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(border).
			PaddingRight(1),
		SidebarItem:   lipgloss.NewStyle(),
		SidebarCursor: lipgloss.NewStyle().Foreground(selected).Bold(true),
		SidebarActive: lipgloss.NewStyle().Underline(true),
		Transcript:    lipgloss.NewStyle().PaddingLeft(1),
		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(border),
		Keyword:        lipgloss.NewStyle().Foreground(dim),
		KeywordActive:  lipgloss.NewStyle().Reverse(true),
		KeywordFocused: lipgloss.NewStyle().Underline(true).Bold(true),
		Status:         lipgloss.NewStyle().Foreground(dim).Italic(true),
		Warning:        lipgloss.NewStyle().Foreground(selected),
		Help:           lipgloss.NewStyle().Foreground(dim),
	}
}
