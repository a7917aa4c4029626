// Package geom implements the 2D segment kernel used for collision and
// ray casting. All functions are pure.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance for cross product magnitudes. Interval bounds are
// compared exactly against the closed range [0, 1].
const Epsilon = 1e-6

type Segment struct {
	P1, P2 r2.Vec
}

func Cross(v, w r2.Vec) float64 { return r2.Cross(v, w) }

func Dot(v, w r2.Vec) float64 { return r2.Dot(v, w) }

// Distance is the Euclidean distance between two points.
func Distance(a, b r2.Vec) float64 { return r2.Norm(r2.Sub(a, b)) }

// Intersect reports the intersection point of a and b, if any. The result
// does not depend on argument order.
//
// Non-parallel segments intersect at p + t*r when both parameters lie in
// [0, 1]. For overlapping collinear segments the overlap endpoint with the
// smaller (X, Y) is returned.
func Intersect(a, b Segment) (r2.Vec, bool) {
	first, last, ok := intersect(a, b)
	if !ok {
		return r2.Vec{}, false
	}
	if last.X < first.X || (last.X == first.X && last.Y < first.Y) {
		return last, true
	}
	return first, true
}

// FirstHit is Intersect for a ray cast from a.P1: for overlapping collinear
// segments it returns the overlap point nearest a.P1.
func FirstHit(a, b Segment) (r2.Vec, bool) {
	first, _, ok := intersect(a, b)
	return first, ok
}

// intersect returns the first and last points of a and b's intersection,
// ordered along a. They coincide unless the segments overlap collinearly.
func intersect(a, b Segment) (first, last r2.Vec, ok bool) {
	p, q := a.P1, b.P1
	r := r2.Sub(a.P2, p)
	s := r2.Sub(b.P2, q)

	rxs := Cross(r, s)
	qp := r2.Sub(q, p)
	qpxr := Cross(qp, r)

	if math.Abs(rxs) < Epsilon {
		if math.Abs(qpxr) >= Epsilon {
			return r2.Vec{}, r2.Vec{}, false
		}
		return collinear(b, p, r, qp, s)
	}

	t := Cross(qp, s) / rxs
	u := qpxr / rxs
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return r2.Vec{}, r2.Vec{}, false
	}
	hit := r2.Add(p, r2.Scale(t, r))
	return hit, hit, true
}

func collinear(b Segment, p, r, qp, s r2.Vec) (first, last r2.Vec, ok bool) {
	rr := Dot(r, r)
	if rr == 0 {
		if onSegment(p, b) {
			return p, p, true
		}
		return r2.Vec{}, r2.Vec{}, false
	}

	t0 := Dot(qp, r) / rr
	t1 := t0 + Dot(s, r)/rr
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t1 < 0 || t0 > 1 {
		return r2.Vec{}, r2.Vec{}, false
	}
	first = r2.Add(p, r2.Scale(math.Max(t0, 0), r))
	last = r2.Add(p, r2.Scale(math.Min(t1, 1), r))
	return first, last, true
}

func onSegment(p r2.Vec, s Segment) bool {
	d := r2.Sub(s.P2, s.P1)
	rel := r2.Sub(p, s.P1)
	if math.Abs(Cross(rel, d)) >= Epsilon {
		return false
	}
	dd := Dot(d, d)
	if dd == 0 {
		return rel.X == 0 && rel.Y == 0
	}
	t := Dot(rel, d) / dd
	return t >= 0 && t <= 1
}

// AnyIntersection reports whether any segment of as crosses any segment of bs.
func AnyIntersection(as, bs []Segment) bool {
	for _, a := range as {
		for _, b := range bs {
			if _, ok := Intersect(a, b); ok {
				return true
			}
		}
	}
	return false
}
