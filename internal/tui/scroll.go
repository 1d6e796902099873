package tui

// AtBottom reports whether a viewport showing contentLines of content at
// the given offset is within threshold lines of the end. The threshold is
// the scrolled-away proximity test: anything inside it still counts as
// "at the bottom".
func AtBottom(offset, contentLines, viewHeight, threshold int) bool {
	if contentLines <= viewHeight {
		return true
	}
	return contentLines-(offset+viewHeight) <= threshold
}

// bottomOffset returns the offset that shows the end of the content.
func bottomOffset(contentLines, viewHeight int) int {
	if contentLines <= viewHeight {
		return 0
	}
	return contentLines - viewHeight
}

// clampOffset keeps an offset inside the scrollable range.
func clampOffset(offset, contentLines, viewHeight int) int {
	max := bottomOffset(contentLines, viewHeight)
	if offset > max {
		return max
	}
	if offset < 0 {
		return 0
	}
	return offset
}
