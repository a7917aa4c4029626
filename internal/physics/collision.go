package physics

import (
	"github.com/san-kum/osvsim/internal/geom"
	"github.com/san-kum/osvsim/internal/osv"
)

// Collides reports whether any side of the vehicle touches an obstacle edge
// or an arena wall. A vehicle wholly inside an obstacle does not collide.
func Collides(a *osv.Arena) bool {
	body := a.Vehicle.Body().Edges()
	sides := body[:]

	for _, o := range a.Obstacles {
		edges := o.Edges()
		if geom.AnyIntersection(sides, edges[:]) {
			return true
		}
	}

	walls := a.Walls()
	return geom.AnyIntersection(sides, walls[:])
}
