// Package viz draws a running cloth in the terminal.
//
// [Canvas] is a braille dot grid, [Camera] an orbit camera over mgl32
// matrices, and [Scene] projects the structural edges and the sphere outline
// onto a canvas. [Model] is the Bubble Tea live view and [Picker] a preset
// menu in front of it.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	N      - Single step while paused
//	R      - Reset to rest
//	Arrows - Orbit camera
//	+/-    - Zoom
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Show help overlay
package viz
