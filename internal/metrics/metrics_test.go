package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/telemetry"
)

func frame(n int, x, y float32, l, r int16) telemetry.Frame {
	return telemetry.Frame{FrameNo: n, OSV: telemetry.Pose{X: x, Y: y}, LeftPWM: l, RightPWM: r}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Errorf("empty effort = %f, want 0", m.Value())
	}

	m.OnFrame(frame(0, 0, 0, 100, -100))
	m.OnFrame(frame(1, 0, 0, 0, 0))
	if got := m.Value(); got != 100 {
		t.Errorf("effort = %f, want 100", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("effort after reset = %f", m.Value())
	}
}

func TestPathLength(t *testing.T) {
	m := NewPathLength()
	m.OnFrame(frame(0, 0, 0, 0, 0))
	m.OnFrame(frame(1, 3, 4, 0, 0))
	m.OnFrame(frame(2, 3, 4, 0, 0))
	m.OnFrame(frame(3, 3, 5, 0, 0))

	if got := m.Value(); math.Abs(got-6) > 1e-9 {
		t.Errorf("path length = %f, want 6", got)
	}

	m.Reset()
	m.OnFrame(frame(4, 10, 10, 0, 0))
	if m.Value() != 0 {
		t.Errorf("first frame after reset moved %f", m.Value())
	}
}

func TestClosestApproach(t *testing.T) {
	m := NewClosestApproach(osv.Pose{X: 2, Y: 1})
	if !math.IsInf(m.Value(), 1) {
		t.Errorf("closest before any frame = %f, want +Inf", m.Value())
	}

	for i, x := range []float32{0, 1, 1.5, 1} {
		m.OnFrame(frame(i, x, 1, 0, 0))
	}
	if got := m.Value(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("closest = %f, want 0.5", got)
	}
}

func TestStandardSet(t *testing.T) {
	arena := &osv.Arena{Destination: osv.Pose{X: 1, Y: 0}}
	s := Standard(arena)

	if err := s.OnFrame(frame(0, 0, 0, 50, 50)); err != nil {
		t.Fatal(err)
	}
	if err := s.OnFrame(frame(1, 1, 0, 50, 50)); err != nil {
		t.Fatal(err)
	}

	v := s.Values()
	want := map[string]float64{"control_effort": 100, "path_length": 1, "closest_approach": 0}
	for name, w := range want {
		if math.Abs(v[name]-w) > 1e-9 {
			t.Errorf("%s = %f, want %f", name, v[name], w)
		}
	}
}
