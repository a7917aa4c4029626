package config

import "sort"

// Point is a preset position in arena coordinates.
type Point struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Theta float64 `yaml:"theta,omitempty" json:"theta,omitempty"`
}

// Layout seeds an arena for runs that arrive without a request document.
type Layout struct {
	Description string  `yaml:"description"`
	Start       Point   `yaml:"start"`
	Destination Point   `yaml:"destination"`
	Obstacles   []Point `yaml:"obstacles"`
}

var Presets = map[string]*Layout{
	"empty": {
		Description: "open arena, straight run to the far side",
		Start:       Point{X: 0.35, Y: 1.0},
		Destination: Point{X: 3.6, Y: 1.0},
	},
	"wall": {
		Description: "single obstacle directly ahead of the start",
		Start:       Point{X: 0.35, Y: 1.0},
		Destination: Point{X: 3.6, Y: 1.0},
		Obstacles:   []Point{{X: 1.5, Y: 1.25}},
	},
	"slalom": {
		Description: "three staggered obstacles between start and goal",
		Start:       Point{X: 0.35, Y: 0.5},
		Destination: Point{X: 3.6, Y: 1.5},
		Obstacles: []Point{
			{X: 1.0, Y: 0.9},
			{X: 1.9, Y: 2.0},
			{X: 2.8, Y: 0.9},
		},
	},
}

func GetPreset(name string) *Layout {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
