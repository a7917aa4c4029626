package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the replay panels.
type Theme struct {
	Name     string
	Progress lipgloss.Color
	Title    lipgloss.Color
	Playing  lipgloss.Color
	Paused   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:     "harbor",
		Progress: lipgloss.Color("#2aa1d6"),
		Title:    lipgloss.Color("#7fdbff"),
		Playing:  lipgloss.Color("#3ddc84"),
		Paused:   lipgloss.Color("#ffb347"),
	},
	{
		Name:     "sonar",
		Progress: lipgloss.Color("#00ff00"),
		Title:    lipgloss.Color("#00cc00"),
		Playing:  lipgloss.Color("#88ff88"),
		Paused:   lipgloss.Color("#ffff00"),
	},
	{
		Name:     "plain",
		Progress: lipgloss.Color("#cccccc"),
		Title:    lipgloss.Color("#ffffff"),
		Playing:  lipgloss.Color("#ffffff"),
		Paused:   lipgloss.Color("#888888"),
	},
}

var CurrentTheme = Themes[0]

// SetTheme selects a theme by name and reports whether it exists.
func SetTheme(name string) bool {
	for _, t := range Themes {
		if t.Name == name {
			CurrentTheme = t
			return true
		}
	}
	return false
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
}
