package osv

import (
	"github.com/san-kum/osvsim/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// SensorCount is the number of distance sensor mount points on a vehicle.
	SensorCount = 12
	// SensorsPerSide is the number of mount points on each of the four sides.
	SensorsPerSide = 3
	// MaxPWM bounds motor commands in both directions.
	MaxPWM = 255
)

type Coordinate struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

func (c Coordinate) Vec() r2.Vec {
	return r2.Vec{X: float64(c.X), Y: float64(c.Y)}
}

type Pose struct {
	X     float32 `json:"x" yaml:"x"`
	Y     float32 `json:"y" yaml:"y"`
	Theta float32 `json:"theta" yaml:"theta"`
}

func (p Pose) Vec() r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

type Vehicle struct {
	Pose     Pose
	Width    float32
	Height   float32
	LeftPWM  int16
	RightPWM int16
	Sensors  [SensorCount]bool
}

// Body returns the oriented rectangle of the vehicle. Height runs along the
// heading and width across it.
func (v Vehicle) Body() geom.OrientedRect {
	return geom.OrientedRect{
		Center: v.Pose.Vec(),
		Theta:  float64(v.Pose.Theta),
		Length: float64(v.Height),
		Width:  float64(v.Width),
	}
}

// SetLeftPWM stores a clamped left motor command.
func (v *Vehicle) SetLeftPWM(pwm int) { v.LeftPWM = ClampPWM(pwm) }

// SetRightPWM stores a clamped right motor command.
func (v *Vehicle) SetRightPWM(pwm int) { v.RightPWM = ClampPWM(pwm) }

func (v *Vehicle) StopMotors() {
	v.LeftPWM = 0
	v.RightPWM = 0
}

// EnableAllSensors turns every mount point on.
func (v *Vehicle) EnableAllSensors() {
	for i := range v.Sensors {
		v.Sensors[i] = true
	}
}

func ClampPWM(pwm int) int16 {
	if pwm > MaxPWM {
		return MaxPWM
	}
	if pwm < -MaxPWM {
		return -MaxPWM
	}
	return int16(pwm)
}

type Obstacle struct {
	Origin Coordinate `json:"origin" yaml:"origin"`
	Width  float32    `json:"width" yaml:"width"`
	Height float32    `json:"height" yaml:"height"`
}

// Edges returns the right, bottom, left and top sides of the obstacle.
func (o Obstacle) Edges() [4]geom.Segment {
	return geom.AxisRect(o.Origin.Vec(), float64(o.Width), float64(o.Height)).Edges()
}

type Arena struct {
	Vehicle     Vehicle
	Destination Pose
	Obstacles   []Obstacle
	Width       float32
	Height      float32
}

// Walls returns the four arena boundary segments. The arena spans
// [0, Width] x [0, Height].
func (a *Arena) Walls() [4]geom.Segment {
	w, h := float64(a.Width), float64(a.Height)
	return [4]geom.Segment{
		{P1: r2.Vec{X: w, Y: 0}, P2: r2.Vec{X: w, Y: h}},
		{P1: r2.Vec{X: 0, Y: 0}, P2: r2.Vec{X: w, Y: 0}},
		{P1: r2.Vec{X: 0, Y: 0}, P2: r2.Vec{X: 0, Y: h}},
		{P1: r2.Vec{X: 0, Y: h}, P2: r2.Vec{X: w, Y: h}},
	}
}
