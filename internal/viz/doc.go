// Package viz replays recorded runs in the terminal.
//
// The arena is drawn on a braille [Canvas]: walls, obstacles, the
// destination, the vehicle's trail and its body at the current frame. A
// side panel shows the pose, motor PWMs, console output and a pose graph.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	[ ]   - Step one frame back/forward
//	+ -   - Change playback speed
//	R     - Restart from frame 0
//	T     - Cycle color themes
//	Q     - Quit
package viz
