// Package sensor emulates the vehicle's twelve distance sensors by ray
// casting against the arena obstacles.
package sensor

import (
	"math"

	"github.com/san-kum/osvsim/internal/geom"
	"github.com/san-kum/osvsim/internal/osv"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultRange = 1.0

	// Disabled is returned for sensors switched off in the run request and
	// for indices outside [0, 11].
	Disabled float32 = -1.0
)

type Model struct {
	Range float64
}

func New(maxRange float64) *Model {
	if maxRange <= 0 {
		maxRange = DefaultRange
	}
	return &Model{Range: maxRange}
}

// Ray returns the sensing segment for a mount point. Sensors on side k look
// along the heading rotated by -k*90 degrees.
func (m *Model) Ray(v osv.Vehicle, index int) geom.Segment {
	origin := v.Body().MountPoints()[index]
	side := index / osv.SensorsPerSide
	dir := float64(v.Pose.Theta) - float64(side)*math.Pi/2
	sin, cos := math.Sincos(dir)

	return geom.Segment{
		P1: origin,
		P2: r2.Add(origin, r2.Vec{X: m.Range * cos, Y: m.Range * sin}),
	}
}

// Read returns the distance from the mount point to the nearest obstacle
// edge along the ray, or the full range when nothing is hit.
func (m *Model) Read(a *osv.Arena, index int) float32 {
	if index < 0 || index >= osv.SensorCount {
		return Disabled
	}
	if !a.Vehicle.Sensors[index] {
		return Disabled
	}

	ray := m.Ray(a.Vehicle, index)
	nearest := m.Range
	for _, o := range a.Obstacles {
		for _, edge := range o.Edges() {
			hit, ok := geom.FirstHit(ray, edge)
			if !ok {
				continue
			}
			nearest = math.Min(nearest, geom.Distance(ray.P1, hit))
		}
	}

	return float32(nearest)
}
