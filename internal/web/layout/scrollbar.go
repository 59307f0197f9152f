package layout

// Scrollbar describes thumb geometry for a host-painted scrollbar.
type Scrollbar struct {
	ThumbY      int
	ThumbHeight int
	Visible     bool
}

// ScrollbarFor computes scrollbar thumb geometry for the current scroll
// offset. The thumb height is proportional to the visible share of the
// document; the bar is hidden when the whole document fits the viewport.
func (e Engine) ScrollbarFor(lines []DisplayLine, scroll, viewportHeight int) Scrollbar {
	docHeight := e.Height(lines)
	if docHeight <= viewportHeight || viewportHeight <= 0 {
		return Scrollbar{}
	}

	thumbHeight := viewportHeight * viewportHeight / docHeight
	if thumbHeight < 1 {
		thumbHeight = 1
	}
	thumbY := (viewportHeight - thumbHeight) * scroll / (docHeight - viewportHeight)

	return Scrollbar{ThumbY: thumbY, ThumbHeight: thumbHeight, Visible: true}
}
