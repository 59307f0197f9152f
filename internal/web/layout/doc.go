// Package layout turns token streams into positioned display lines.
//
// The algorithm is a greedy word wrap with fixed cell metrics: tokens
// accumulate onto the current line while their cumulative measured width
// fits the viewport, and explicit break tokens always start a new line.
// Layout is pure and deterministic, so a resize is handled by full
// recomputation rather than incremental patching. Scrolling is a pure
// projection over the computed lines.
package layout
