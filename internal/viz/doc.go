// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea program: its tick message is the display clock and
// advances the simulator between frames. The cart and rod are drawn on a
// braille [Canvas] through a [Scene]; the side panel shows the angle error
// history, live gains and an eased push gauge.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to upright
//	←/→   - Nudge the cart
//	Tab   - Select gain slider
//	↑/↓   - Adjust selected slider
//	[/]   - Adjust convergence rate
//	M     - Toggle PID/PD
//	T     - Cycle color themes
package viz
