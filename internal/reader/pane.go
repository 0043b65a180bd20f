package reader

// Pane is the core-facing view of one rendered text column. The
// presentation layer implements it; the core never owns paragraph DOM, it
// addresses content purely by paragraph index and vertical geometry.
type Pane interface {
	ScrollTop() float64
	SetScrollTop(offset float64)
	ViewportHeight() float64
	ContentHeight() float64
	ItemCount() int
	ItemTop(index int) float64
	ItemHeight(index int) float64
}

// anchorIndex locates the paragraph under the pane's reference line: the
// first paragraph whose vertical extent reaches below a line a fixed
// fraction down from the viewport top.
func anchorIndex(p Pane, refFraction float64) int {
	count := p.ItemCount()
	if count == 0 {
		return -1
	}
	refLine := p.ScrollTop() + refFraction*p.ViewportHeight()
	for i := 0; i < count; i++ {
		if p.ItemTop(i)+p.ItemHeight(i) > refLine {
			return i
		}
	}
	return count - 1
}

// firstIndexAtOrAfter returns the first paragraph whose extent reaches the
// given scroll offset. Playback workflows start here.
func firstIndexAtOrAfter(p Pane, offset float64) int {
	count := p.ItemCount()
	for i := 0; i < count; i++ {
		if p.ItemTop(i)+p.ItemHeight(i) > offset {
			return i
		}
	}
	return count
}

// clampScroll keeps an offset within the pane's scrollable range. A pane
// whose content fits the viewport has no range at all.
func clampScroll(p Pane, offset float64) (float64, bool) {
	max := p.ContentHeight() - p.ViewportHeight()
	if max <= 0 {
		return 0, false
	}
	if offset < 0 {
		offset = 0
	}
	if offset > max {
		offset = max
	}
	return offset, true
}
