package catalog

// Logical cache keys for catalog resource kinds. Composite cache keys are
// formed by the store as <profileID>:<logical key>.
const (
	KeyLiveStreams      = "live_streams"
	KeyLiveCategories   = "live_categories"
	KeyMovies           = "movies"
	KeyMovieCategories  = "movie_categories"
	KeySeries           = "series"
	KeySeriesCategories = "series_categories"

	// PrefixSeriesInfo is followed by the series id (series_info:{seriesID})
	PrefixSeriesInfo = "series_info:"
)

// trackedKeys returns the exact logical keys RefreshAll invalidates.
// Series detail entries are invalidated by prefix.
func trackedKeys() []string {
	return []string{
		KeyLiveStreams,
		KeyLiveCategories,
		KeyMovies,
		KeyMovieCategories,
		KeySeries,
		KeySeriesCategories,
	}
}
