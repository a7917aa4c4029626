package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// OrientedRect is a rectangle centered on Center. Length runs along the
// heading Theta, Width across it.
type OrientedRect struct {
	Center r2.Vec
	Theta  float64
	Length float64
	Width  float64
}

// Corners returns front-left, front-right, back-left and back-right.
func (o OrientedRect) Corners() (fl, fr, bl, br r2.Vec) {
	front, back := o.midpoints()
	lateral := o.lateral()
	return r2.Add(front, lateral), r2.Sub(front, lateral),
		r2.Add(back, lateral), r2.Sub(back, lateral)
}

func (o OrientedRect) midpoints() (front, back r2.Vec) {
	sin, cos := math.Sincos(o.Theta)
	half := r2.Vec{X: o.Length / 2 * cos, Y: o.Length / 2 * sin}
	return r2.Add(o.Center, half), r2.Sub(o.Center, half)
}

// lateral points from the center line to the left side.
func (o OrientedRect) lateral() r2.Vec {
	sin, cos := math.Sincos(o.Theta)
	return r2.Vec{X: -o.Width / 2 * sin, Y: o.Width / 2 * cos}
}

// Edges returns the front, left, back and right sides.
func (o OrientedRect) Edges() [4]Segment {
	fl, fr, bl, br := o.Corners()
	return [4]Segment{
		{P1: fl, P2: fr},
		{P1: fl, P2: bl},
		{P1: bl, P2: br},
		{P1: fr, P2: br},
	}
}

// MountPoints returns the twelve perimeter points walking front, right,
// back, left, three per side, each side starting at its leading corner.
func (o OrientedRect) MountPoints() [12]r2.Vec {
	fl, fr, bl, br := o.Corners()
	front, back := o.midpoints()
	right := r2.Scale(0.5, r2.Add(fr, br))
	left := r2.Scale(0.5, r2.Add(fl, bl))
	return [12]r2.Vec{
		fl, front, fr,
		fr, right, br,
		br, back, bl,
		bl, left, fl,
	}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner,
// extending +X by Width and -Y by Height.
type Rect struct {
	Origin r2.Vec
	Width  float64
	Height float64
}

func AxisRect(origin r2.Vec, width, height float64) Rect {
	return Rect{Origin: origin, Width: width, Height: height}
}

// Edges returns the right, bottom, left and top sides.
func (r Rect) Edges() [4]Segment {
	x, y := r.Origin.X, r.Origin.Y
	x2, y2 := x+r.Width, y-r.Height
	return [4]Segment{
		{P1: r2.Vec{X: x2, Y: y}, P2: r2.Vec{X: x2, Y: y2}},
		{P1: r2.Vec{X: x, Y: y2}, P2: r2.Vec{X: x2, Y: y2}},
		{P1: r2.Vec{X: x, Y: y2}, P2: r2.Vec{X: x, Y: y}},
		{P1: r2.Vec{X: x, Y: y}, P2: r2.Vec{X: x2, Y: y}},
	}
}
