// Package window implements the bounded rendering window used for large
// catalog lists: only a fixed-size slice of the loaded items is ever
// materialized, and the window slides as the user scrolls. The state machine
// is pure so it can be driven by any event source.
package window

// DefaultSize is the default window width in items.
const DefaultSize = 100

// Direction of a scroll movement.
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
)

// Slide thresholds: moving past growThreshold of the scroll range advances
// the window, dropping below shrinkThreshold retreats it. The step is a
// quarter of the window.
const (
	growThreshold   = 0.75
	shrinkThreshold = 0.25
	stepFraction    = 0.25
)

// Window is the contiguous sub-range [Start, Start+Size) of a larger item
// sequence that is actually rendered. Invariant: 0 <= Start <=
// max(0, total-Size).
type Window struct {
	Start int
	Size  int
}

// New returns a window of the given size anchored at the top. Sizes below 1
// fall back to DefaultSize.
func New(size int) Window {
	if size < 1 {
		size = DefaultSize
	}
	return Window{Size: size}
}

// Visible returns the [lo, hi) index range to render for a sequence of
// total items. hi-lo never exceeds Size.
func (w Window) Visible(total int) (lo, hi int) {
	lo = w.Start
	if lo > total {
		lo = total
	}
	hi = lo + w.Size
	if hi > total {
		hi = total
	}
	return lo, hi
}

// Clamp re-establishes the start invariant after total changes (items were
// loaded, or the sequence was swapped out).
func (w Window) Clamp(total int) Window {
	maxStart := total - w.Size
	if maxStart < 0 {
		maxStart = 0
	}
	if w.Start > maxStart {
		w.Start = maxStart
	}
	if w.Start < 0 {
		w.Start = 0
	}
	return w
}

// step is how far one slide moves the window.
func (w Window) step() int {
	return int(float64(w.Size) * stepFraction)
}

// Slide computes the next window for a scroll event. scrollRatio is the
// scroll position as a fraction of the scrollable range (0 = top, 1 =
// bottom). Scrolling down past growThreshold advances the start by a quarter
// window when more items exist below; scrolling up below shrinkThreshold
// retreats it. The result always satisfies the start invariant.
func (w Window) Slide(scrollRatio float64, dir Direction, total int) Window {
	switch dir {
	case DirectionDown:
		if scrollRatio > growThreshold && w.Start+w.Size < total {
			w.Start += w.step()
		}
	case DirectionUp:
		if scrollRatio < shrinkThreshold && w.Start > 0 {
			w.Start -= w.step()
		}
	}
	return w.Clamp(total)
}

// Reset returns the window to the top, keeping its size. Used when the
// underlying sequence changes wholesale (profile or category switch).
func (w Window) Reset() Window {
	w.Start = 0
	return w
}
