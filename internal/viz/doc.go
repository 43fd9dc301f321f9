// Package viz renders a live orrery in the terminal.
//
// [Live] is a Bubble Tea model that reads frames from a [transport.Pipe],
// projects the bodies onto a Braille [Canvas] and plots the distance of one
// tracked body with asciigraph. Quitting posts the end message on the pipe
// and waits for the simulation to close its side.
//
// # Key Bindings
//
//	Q     - Stop the simulation and quit
//	Tab   - Track the next body
//	Arrows/hjkl - Rotate the view
//	+/-   - Zoom
//	0     - Reset the view
package viz
