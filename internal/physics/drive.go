package physics

import (
	"math"

	"github.com/san-kum/osvsim/internal/osv"
)

const (
	DefaultTickRate           = 50.0
	DefaultRotationsPerSecond = 0.25
)

// DifferentialDrive advances a tank-style vehicle by one tick. Motion is
// kinematic: PWMs map straight to per-tick displacement with no inertia.
type DifferentialDrive struct {
	TickRate           float64
	RotationsPerSecond float64
}

func NewDifferentialDrive(tickRate float64) *DifferentialDrive {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &DifferentialDrive{
		TickRate:           tickRate,
		RotationsPerSecond: DefaultRotationsPerSecond,
	}
}

// Speed is the forward displacement per tick for the given PWMs.
func (d *DifferentialDrive) Speed(left, right int16) float64 {
	return float64(int(left)+int(right)) / (osv.MaxPWM * d.TickRate)
}

// TurnRate is the heading change per tick for the given PWMs.
func (d *DifferentialDrive) TurnRate(left, right int16) float64 {
	return 2 * math.Pi * d.RotationsPerSecond / d.TickRate * float64(int(right)-int(left)) / osv.MaxPWM
}

// Advance integrates one tick of motion from p. Translation uses the
// heading at the start of the tick.
func (d *DifferentialDrive) Advance(p osv.Pose, left, right int16) osv.Pose {
	speed := d.Speed(left, right)
	theta := float64(p.Theta)
	sin, cos := math.Sincos(theta)

	return osv.Pose{
		X:     float32(float64(p.X) + speed*cos),
		Y:     float32(float64(p.Y) + speed*sin),
		Theta: float32(theta + d.TurnRate(left, right)),
	}
}

// Step moves the arena's vehicle by one tick. If the new pose collides with
// an obstacle or wall the whole tick is discarded and the previous pose is
// restored. It reports whether the motion was accepted.
func (d *DifferentialDrive) Step(a *osv.Arena) bool {
	v := &a.Vehicle
	prev := v.Pose

	v.Pose = d.Advance(prev, v.LeftPWM, v.RightPWM)
	if Collides(a) {
		v.Pose = prev
		return false
	}
	return true
}
