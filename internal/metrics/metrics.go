// Package metrics summarises a run from its telemetry frames. Every metric
// is a sim observer, so it sees exactly the frames the stream carries.
package metrics

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/telemetry"
	"gonum.org/v1/gonum/spatial/r2"
)

type Metric interface {
	Name() string
	OnFrame(f telemetry.Frame) error
	Value() float64
	Reset()
}

// ControlEffort is the mean of |left| + |right| PWM over all frames.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) OnFrame(f telemetry.Frame) error {
	c.sum += math.Abs(float64(f.LeftPWM)) + math.Abs(float64(f.RightPWM))
	c.samples++
	return nil
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PathLength is the distance the vehicle centre travelled, in meters.
type PathLength struct {
	last   r2.Vec
	seen   bool
	length float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) OnFrame(f telemetry.Frame) error {
	pos := framePos(f)
	if p.seen {
		p.length += r2.Norm(r2.Sub(pos, p.last))
	}
	p.last = pos
	p.seen = true
	return nil
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() { *p = PathLength{} }

// ClosestApproach is the smallest distance between the vehicle centre and
// the destination seen so far. It is +Inf before the first frame.
type ClosestApproach struct {
	dest r2.Vec
	min  float64
}

func NewClosestApproach(dest osv.Pose) *ClosestApproach {
	return &ClosestApproach{dest: dest.Vec(), min: math.Inf(1)}
}

func (c *ClosestApproach) Name() string { return "closest_approach" }

func (c *ClosestApproach) OnFrame(f telemetry.Frame) error {
	c.min = math.Min(c.min, r2.Norm(r2.Sub(framePos(f), c.dest)))
	return nil
}

func (c *ClosestApproach) Value() float64 { return c.min }

func (c *ClosestApproach) Reset() { c.min = math.Inf(1) }

// Set fans frames out to several metrics.
type Set []Metric

// Standard returns the metrics recorded for every run in arena.
func Standard(arena *osv.Arena) Set {
	return Set{
		NewControlEffort(),
		NewPathLength(),
		NewClosestApproach(arena.Destination),
	}
}

func (s Set) OnFrame(f telemetry.Frame) error {
	for _, m := range s {
		if err := m.OnFrame(f); err != nil {
			return err
		}
	}
	return nil
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Log(log zerolog.Logger) {
	ev := log.Info()
	for _, m := range s {
		ev = ev.Float64(m.Name(), m.Value())
	}
	ev.Msg("run metrics")
}

func framePos(f telemetry.Frame) r2.Vec {
	return r2.Vec{X: float64(f.OSV.X), Y: float64(f.OSV.Y)}
}
