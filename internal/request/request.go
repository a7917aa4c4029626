// Package request decodes a run request document into the arena a
// simulation starts from.
package request

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/osvsim/internal/builder"
	"github.com/san-kum/osvsim/internal/config"
	"github.com/san-kum/osvsim/internal/osv"
)

const typeSimulation = "simulation"

// Request is a decoded run request. ID and Code are empty when the caller
// supplies a prebuilt binary.
type Request struct {
	ID    string
	Code  string
	Arena *osv.Arena
}

type document struct {
	Type            string         `json:"type"`
	ID              string         `json:"id"`
	Code            string         `json:"code"`
	Randomization   *randomization `json:"randomization"`
	DistanceSensors []bool         `json:"distance_sensors"`
}

type randomization struct {
	OSV         *point     `json:"osv"`
	Obstacles   []obstacle `json:"obstacles"`
	Destination *point     `json:"destination"`
}

type point struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Theta float64  `json:"theta"`
}

type obstacle struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// Options controls which fields are mandatory.
type Options struct {
	// Prebuilt skips the id/code requirement.
	Prebuilt bool
}

func Read(r io.Reader, cfg *config.Config, opts Options) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read request: %v", osv.ErrSetup, err)
	}
	return Parse(data, cfg, opts)
}

// Parse validates a request document and builds its arena. Every failure
// wraps osv.ErrSetup.
func Parse(data []byte, cfg *config.Config, opts Options) (*Request, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, setupErr("malformed JSON: %v", err)
	}

	if doc.Type != "" && doc.Type != typeSimulation {
		return nil, setupErr("unsupported request type %q", doc.Type)
	}
	if !opts.Prebuilt {
		if strings.TrimSpace(doc.ID) == "" {
			return nil, setupErr("missing id")
		}
		if !builder.ValidID(doc.ID) {
			return nil, setupErr("invalid id %q", doc.ID)
		}
		if strings.TrimSpace(doc.Code) == "" {
			return nil, setupErr("missing code")
		}
	}
	if doc.Randomization == nil {
		return nil, setupErr("missing randomization")
	}

	arena, err := doc.Randomization.arena(cfg)
	if err != nil {
		return nil, err
	}

	switch len(doc.DistanceSensors) {
	case 0:
		arena.Vehicle.EnableAllSensors()
	case osv.SensorCount:
		copy(arena.Vehicle.Sensors[:], doc.DistanceSensors)
	default:
		return nil, setupErr("distance_sensors needs %d entries, got %d", osv.SensorCount, len(doc.DistanceSensors))
	}

	return &Request{ID: doc.ID, Code: doc.Code, Arena: arena}, nil
}

func (r *randomization) arena(cfg *config.Config) (*osv.Arena, error) {
	start, err := r.OSV.pose("osv")
	if err != nil {
		return nil, err
	}
	dest, err := r.Destination.pose("destination")
	if err != nil {
		return nil, err
	}

	a := &osv.Arena{
		Vehicle: osv.Vehicle{
			Pose:   start,
			Width:  float32(cfg.Vehicle.Width),
			Height: float32(cfg.Vehicle.Height),
		},
		Destination: dest,
		Width:       float32(cfg.Arena.Width),
		Height:      float32(cfg.Arena.Height),
		Obstacles:   make([]osv.Obstacle, 0, len(r.Obstacles)),
	}

	for i, o := range r.Obstacles {
		if o.X == nil || o.Y == nil {
			return nil, setupErr("obstacle %d: missing coordinate", i)
		}
		w, h := o.Width, o.Height
		if w == 0 {
			w = cfg.Obstacle.Width
		}
		if h == 0 {
			h = cfg.Obstacle.Height
		}
		if w < 0 || h < 0 {
			return nil, setupErr("obstacle %d: negative size %fx%f", i, w, h)
		}
		a.Obstacles = append(a.Obstacles, osv.Obstacle{
			Origin: osv.Coordinate{X: float32(*o.X), Y: float32(*o.Y)},
			Width:  float32(w),
			Height: float32(h),
		})
	}
	return a, nil
}

func (p *point) pose(field string) (osv.Pose, error) {
	if p == nil {
		return osv.Pose{}, setupErr("missing %s", field)
	}
	if p.X == nil || p.Y == nil {
		return osv.Pose{}, setupErr("%s: missing coordinate", field)
	}
	return osv.Pose{X: float32(*p.X), Y: float32(*p.Y), Theta: float32(p.Theta)}, nil
}

// FromPreset builds an arena from a named config layout.
func FromPreset(layout *config.Layout, cfg *config.Config) *osv.Arena {
	a := &osv.Arena{
		Vehicle: osv.Vehicle{
			Pose:   osv.Pose{X: float32(layout.Start.X), Y: float32(layout.Start.Y), Theta: float32(layout.Start.Theta)},
			Width:  float32(cfg.Vehicle.Width),
			Height: float32(cfg.Vehicle.Height),
		},
		Destination: osv.Pose{X: float32(layout.Destination.X), Y: float32(layout.Destination.Y), Theta: float32(layout.Destination.Theta)},
		Width:       float32(cfg.Arena.Width),
		Height:      float32(cfg.Arena.Height),
	}
	for _, o := range layout.Obstacles {
		a.Obstacles = append(a.Obstacles, osv.Obstacle{
			Origin: osv.Coordinate{X: float32(o.X), Y: float32(o.Y)},
			Width:  float32(cfg.Obstacle.Width),
			Height: float32(cfg.Obstacle.Height),
		})
	}
	a.Vehicle.EnableAllSensors()
	return a
}

func setupErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", osv.ErrSetup, fmt.Sprintf(format, args...))
}
