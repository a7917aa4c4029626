// Package physics implements the vehicle motion model.
//
// Each tick the [DifferentialDrive] turns the two motor PWMs into a forward
// displacement and a heading change:
//
//	speed = (left + right) / (255 * tickRate)
//	dθ    = 2π * rotationsPerSecond / tickRate * (right - left) / 255
//
// Collision response is binary. [Collides] tests the four sides of the
// vehicle against every obstacle edge and the four arena walls; a hit rolls
// the pose back to its value before the tick.
package physics
