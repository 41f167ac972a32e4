package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the live view.
type Theme struct {
	Name   string
	Cloth  lipgloss.Color
	Sphere lipgloss.Color
	Graph  lipgloss.Color
	Title  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Warn   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:   "linen",
		Cloth:  lipgloss.Color("#f2e8cf"),
		Sphere: lipgloss.Color("#6a994e"),
		Graph:  lipgloss.Color("#a7c957"),
		Title:  lipgloss.Color("#f2e8cf"),
		Text:   lipgloss.Color("252"),
		Muted:  lipgloss.Color("242"),
		Warn:   lipgloss.Color("#bc4749"),
	},
	{
		Name:   "retro",
		Cloth:  lipgloss.Color("#00ff00"),
		Sphere: lipgloss.Color("#007700"),
		Graph:  lipgloss.Color("#88ff88"),
		Title:  lipgloss.Color("#00ff00"),
		Text:   lipgloss.Color("#00cc00"),
		Muted:  lipgloss.Color("#005500"),
		Warn:   lipgloss.Color("#ffff00"),
	},
	{
		Name:   "ocean",
		Cloth:  lipgloss.Color("#e0f0ff"),
		Sphere: lipgloss.Color("#0077be"),
		Graph:  lipgloss.Color("#00a8cc"),
		Title:  lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Warn:   lipgloss.Color("#ff4444"),
	},
	{
		Name:   "minimal",
		Cloth:  lipgloss.Color("#ffffff"),
		Sphere: lipgloss.Color("#888888"),
		Graph:  lipgloss.Color("#0088ff"),
		Title:  lipgloss.Color("#ffffff"),
		Text:   lipgloss.Color("#cccccc"),
		Muted:  lipgloss.Color("#666666"),
		Warn:   lipgloss.Color("#ffaa00"),
	},
}

// ThemeIndex returns the index of the named theme, or 0.
func ThemeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
