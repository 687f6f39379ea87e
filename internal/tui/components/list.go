package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/strix/internal/domain"
	"github.com/mmcdole/strix/internal/tui/styles"
	"github.com/mmcdole/strix/internal/window"
)

// Layout constants
const (
	// Scroll indicators ("↑ more" / "↓ more") each take one line
	scrollIndicatorLines = 2
	headerLines          = 1
	footerLines          = 1
)

// CatalogList renders a large catalog sequence through a bounded window:
// however many items are loaded, at most windowSize of them are
// materialized into rows. The cursor drives both window sliding and
// pagination requests.
type CatalogList struct {
	items []domain.ListEntry
	win   window.Window

	// cursor is an absolute index into the display sequence (filtered or
	// full); offset is the first visible row within the window for the
	// current terminal height.
	cursor     int
	offset     int
	maxVisible int

	width   int
	height  int
	title   string
	loading bool
	frame   int
	hasMore bool

	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into items; nil when no filter
}

// NewCatalogList creates a list with the given window size.
func NewCatalogList(title string, windowSize int) *CatalogList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &CatalogList{
		title:       title,
		win:         window.New(windowSize),
		filterInput: ti,
	}
}

// SetItems replaces the display sequence, keeping cursor and window valid.
// Called both on first load and whenever pagination grows the sequence.
func (c *CatalogList) SetItems(items []domain.ListEntry, hasMore bool) {
	c.items = items
	c.hasMore = hasMore
	c.applyFilter()
	c.win = c.win.Clamp(c.total())
	c.clampCursor()
}

// Reset returns to the top with no filter. Used on profile, view, or
// category switches; any in-flight results for the old sequence are
// discarded by the app via its generation counter.
func (c *CatalogList) Reset() {
	c.items = nil
	c.hasMore = true
	c.cursor = 0
	c.offset = 0
	c.win = c.win.Reset()
	c.clearFilter()
}

// SetTitle updates the header title.
func (c *CatalogList) SetTitle(title string) { c.title = title }

// SetLoading toggles the loading indicator.
func (c *CatalogList) SetLoading(loading bool) { c.loading = loading }

// Tick advances the spinner.
func (c *CatalogList) Tick() { c.frame++ }

// SetSize updates terminal dimensions.
func (c *CatalogList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.maxVisible = height - headerLines - scrollIndicatorLines - footerLines
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
	c.scrollToCursor()
}

// total is the length of the display sequence (filtered or full).
func (c *CatalogList) total() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return len(c.items)
}

// entryAt resolves a display index to the underlying entry.
func (c *CatalogList) entryAt(i int) domain.ListEntry {
	if c.filteredIdx != nil {
		return c.items[c.filteredIdx[i]]
	}
	return c.items[i]
}

// Selected returns the entry under the cursor, or nil when empty.
func (c *CatalogList) Selected() domain.ListEntry {
	if c.total() == 0 || c.cursor >= c.total() {
		return nil
	}
	return c.entryAt(c.cursor)
}

// Cursor returns the absolute cursor position.
func (c *CatalogList) Cursor() int { return c.cursor }

// MoveCursor moves by delta rows, sliding the window as the cursor crosses
// its thresholds. Returns true when the cursor has reached the bottom of
// the loaded-and-rendered frontier and more items exist upstream — the
// caller should request another page.
func (c *CatalogList) MoveCursor(delta int) bool {
	total := c.total()
	if total == 0 {
		return c.hasMore && delta > 0
	}

	c.cursor += delta
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor > total-1 {
		c.cursor = total - 1
	}

	// Cursor position within the window, as a fraction of the window, is
	// the scroll ratio that drives sliding.
	ratio := float64(c.cursor-c.win.Start) / float64(c.win.Size)
	if delta > 0 {
		c.win = c.win.Slide(ratio, window.DirectionDown, total)
	} else if delta < 0 {
		c.win = c.win.Slide(ratio, window.DirectionUp, total)
	}
	c.keepCursorInWindow()
	c.scrollToCursor()

	// Sentinel: bottom of the rendered list with nothing left to slide to
	_, hi := c.win.Visible(total)
	return delta > 0 && c.hasMore && c.filteredIdx == nil && c.cursor >= hi-1 && hi >= total
}

// MoveToTop jumps to the first item.
func (c *CatalogList) MoveToTop() {
	c.cursor = 0
	c.offset = 0
	c.win = c.win.Reset()
}

// MoveToEnd jumps to the last loaded item. Returns true when more should be
// requested, mirroring MoveCursor.
func (c *CatalogList) MoveToEnd() bool {
	total := c.total()
	if total == 0 {
		return c.hasMore
	}
	c.cursor = total - 1
	c.win = window.Window{Start: total, Size: c.win.Size}.Clamp(total)
	c.scrollToCursor()
	return c.hasMore && c.filteredIdx == nil
}

// clampCursor clamps the cursor into [0, total()-1] — needed when the
// sequence shrinks — and re-syncs the viewport offset.
func (c *CatalogList) clampCursor() {
	total := c.total()
	if c.cursor > total-1 {
		c.cursor = total - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
	c.scrollToCursor()
}

// keepCursorInWindow clamps the cursor into the rendered range after a slide.
func (c *CatalogList) keepCursorInWindow() {
	lo, hi := c.win.Visible(c.total())
	if c.cursor < lo {
		c.cursor = lo
	}
	if hi > lo && c.cursor > hi-1 {
		c.cursor = hi - 1
	}
}

// scrollToCursor adjusts the terminal viewport offset within the window.
func (c *CatalogList) scrollToCursor() {
	if c.maxVisible <= 0 {
		return
	}
	row := c.cursor - c.win.Start
	if row < c.offset {
		c.offset = row
	}
	if row >= c.offset+c.maxVisible {
		c.offset = row - c.maxVisible + 1
	}
	if c.offset < 0 {
		c.offset = 0
	}
}

// === Filter ===

// StartFilter activates the fuzzy filter input.
func (c *CatalogList) StartFilter() tea.Cmd {
	c.filterActive = true
	return c.filterInput.Focus()
}

// Filtering reports whether the filter input currently captures keys.
func (c *CatalogList) Filtering() bool {
	return c.filterActive && c.filterInput.Focused()
}

// UpdateFilter feeds a key to the filter input.
func (c *CatalogList) UpdateFilter(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			c.clearFilter()
			return nil
		case "enter":
			// Accept filter, blur to allow navigation
			c.filterInput.Blur()
			return nil
		}
	}
	var cmd tea.Cmd
	c.filterInput, cmd = c.filterInput.Update(msg)
	if q := c.filterInput.Value(); q != c.filterQuery {
		c.filterQuery = q
		c.applyFilter()
		c.cursor = 0
		c.offset = 0
		c.win = c.win.Reset()
	}
	return cmd
}

func (c *CatalogList) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.filteredIdx = nil
	c.cursor = 0
	c.offset = 0
	c.win = c.win.Reset()
}

// applyFilter recomputes filteredIdx with fuzzy matching over entry names.
func (c *CatalogList) applyFilter() {
	if c.filterQuery == "" {
		c.filteredIdx = nil
		return
	}
	names := make([]string, len(c.items))
	for i, e := range c.items {
		names[i] = e.GetName()
	}
	matches := fuzzy.Find(c.filterQuery, names)
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	c.filteredIdx = idx
}

// === Rendering ===

// View renders the windowed rows plus chrome. At most windowSize entries
// are ever materialized regardless of how many items are loaded.
func (c *CatalogList) View() string {
	var b strings.Builder

	total := c.total()
	header := styles.TitleStyle.Render(c.title)
	if total > 0 {
		header += styles.DimStyle.Render(fmt.Sprintf("  %d/%d", c.cursor+1, total))
	}
	if c.loading {
		header += " " + styles.AccentStyle.Render(styles.SpinnerFrames[c.frame%len(styles.SpinnerFrames)])
	}
	b.WriteString(header)
	b.WriteString("\n")

	if c.filterActive {
		b.WriteString(c.filterInput.View())
		b.WriteString("\n")
	}

	lo, hi := c.win.Visible(total)
	rows := hi - lo

	// Viewport within the window
	top := lo + c.offset
	bottom := top + c.maxVisible
	if bottom > hi {
		bottom = hi
	}

	if c.offset > 0 {
		b.WriteString(styles.DimStyle.Render("  ↑ more"))
	}
	b.WriteString("\n")

	for i := top; i < bottom; i++ {
		entry := c.entryAt(i)
		line := truncate(entry.GetName(), c.width-4)
		if i == c.cursor {
			b.WriteString(styles.SelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	switch {
	case c.offset+c.maxVisible < rows || hi < total:
		b.WriteString(styles.DimStyle.Render("  ↓ more"))
	case !c.hasMore && total > 0 && c.filteredIdx == nil:
		b.WriteString(styles.DimStyle.Render("  no more items"))
	}
	b.WriteString("\n")

	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return s[:max-1] + "…"
}
