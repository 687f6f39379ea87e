package tui

import (
	"github.com/mmcdole/strix/internal/domain"
)

// Message types for the TUI. Catalog messages carry the generation counter
// of the request that produced them; results from a superseded generation
// (profile or view switched mid-fetch) are discarded on arrival.

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
	Gen     int
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// EntriesLoadedMsg signals that a catalog list for a view has been loaded
type EntriesLoadedMsg struct {
	View    View
	Entries []domain.ListEntry
	Gen     int
}

// CategoriesLoadedMsg signals that categories for a view have been loaded
type CategoriesLoadedMsg struct {
	View       View
	Categories []domain.Category
	Gen        int
}

// SeriesInfoLoadedMsg signals that a series detail view has been loaded
type SeriesInfoLoadedMsg struct {
	Info *domain.SeriesInfo
	Gen  int
}

// RefreshedMsg signals that RefreshAll bookkeeping completed
type RefreshedMsg struct {
	Gen int
}

// PlaybackStartedMsg signals that the external player was launched
type PlaybackStartedMsg struct {
	Title string
}

// spinnerTickMsg advances the loading spinner
type spinnerTickMsg struct{}
