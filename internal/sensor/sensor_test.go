package sensor

import (
	"math"
	"testing"

	"github.com/san-kum/osvsim/internal/osv"
)

func arena(obstacles ...osv.Obstacle) *osv.Arena {
	a := &osv.Arena{
		Vehicle: osv.Vehicle{
			Pose:   osv.Pose{X: 1, Y: 1, Theta: 0},
			Width:  0.25,
			Height: 0.35,
		},
		Obstacles: obstacles,
		Width:     4,
		Height:    2,
	}
	a.Vehicle.EnableAllSensors()
	return a
}

func TestReadNoObstacles(t *testing.T) {
	m := New(DefaultRange)
	a := arena()

	for i := 0; i < osv.SensorCount; i++ {
		if got := m.Read(a, i); got != 1.0 {
			t.Errorf("sensor %d: expected full range 1.0, got %f", i, got)
		}
	}
}

func TestReadDisabled(t *testing.T) {
	m := New(DefaultRange)
	a := arena(osv.Obstacle{Origin: osv.Coordinate{X: 1.3, Y: 1.5}, Width: 0.2, Height: 1})
	a.Vehicle.Sensors = [osv.SensorCount]bool{}

	for i := 0; i < osv.SensorCount; i++ {
		if got := m.Read(a, i); got != Disabled {
			t.Errorf("sensor %d: expected -1 when disabled, got %f", i, got)
		}
	}
}

func TestReadOutOfRangeIndex(t *testing.T) {
	m := New(DefaultRange)
	a := arena()

	for _, idx := range []int{-1, 12, 255} {
		if got := m.Read(a, idx); got != Disabled {
			t.Errorf("index %d: expected -1, got %f", idx, got)
		}
	}
}

func TestReadFrontObstacle(t *testing.T) {
	m := New(DefaultRange)
	// front face of the vehicle sits at x=1.175
	a := arena(osv.Obstacle{Origin: osv.Coordinate{X: 1.675, Y: 1.5}, Width: 0.2, Height: 1})

	got := m.Read(a, 1)
	if math.Abs(float64(got)-0.5) > 1e-5 {
		t.Errorf("expected 0.5 from front-mid sensor, got %f", got)
	}

	if back := m.Read(a, 7); back != 1.0 {
		t.Errorf("back sensor should see nothing, got %f", back)
	}
}

func TestReadSideDirections(t *testing.T) {
	m := New(DefaultRange)
	// right side of the vehicle faces -y at y=0.875
	right := arena(osv.Obstacle{Origin: osv.Coordinate{X: 0.5, Y: 0.575}, Width: 1, Height: 0.1})
	if got := m.Read(right, 4); math.Abs(float64(got)-0.3) > 1e-5 {
		t.Errorf("right-mid sensor: expected 0.3, got %f", got)
	}
	if got := m.Read(right, 10); got != 1.0 {
		t.Errorf("left-mid sensor should see nothing, got %f", got)
	}

	// left side faces +y at y=1.125
	left := arena(osv.Obstacle{Origin: osv.Coordinate{X: 0.5, Y: 1.625}, Width: 1, Height: 0.1})
	if got := m.Read(left, 10); math.Abs(float64(got)-0.4) > 1e-5 {
		t.Errorf("left-mid sensor: expected 0.4, got %f", got)
	}
}

func TestReadNearestEdge(t *testing.T) {
	m := New(DefaultRange)
	a := arena(
		osv.Obstacle{Origin: osv.Coordinate{X: 1.875, Y: 1.5}, Width: 0.1, Height: 1},
		osv.Obstacle{Origin: osv.Coordinate{X: 1.475, Y: 1.5}, Width: 0.1, Height: 1},
	)

	if got := m.Read(a, 1); math.Abs(float64(got)-0.3) > 1e-5 {
		t.Errorf("expected nearest hit 0.3, got %f", got)
	}
}

func TestReadBeyondRange(t *testing.T) {
	m := New(DefaultRange)
	a := arena(osv.Obstacle{Origin: osv.Coordinate{X: 2.5, Y: 1.5}, Width: 0.2, Height: 1})

	if got := m.Read(a, 1); got != 1.0 {
		t.Errorf("obstacle beyond range should read 1.0, got %f", got)
	}
}
