// Package osv holds the data model shared by the simulation engine.
//
// An [Arena] owns exactly one controlled [Vehicle], a fixed destination and
// a flat list of axis-aligned [Obstacle] rectangles:
//
//   - [Pose]: vehicle position (meters) and heading (radians)
//   - [Vehicle]: pose, body dimensions, motor PWMs and sensor enable flags
//   - [Obstacle]: rectangle anchored at its top-left corner, extending +x and -y
//   - [Arena]: everything the scheduler mutates tick by tick
//
// # Thread Safety
//
// Arena values are owned by a single scheduler goroutine and are NOT
// thread-safe.
package osv
