package domain

import "context"

// CatalogClient fetches catalog entries from the remote backend. One
// authenticated request per call; implementations retry transient failures
// internally before surfacing an error.
type CatalogClient interface {
	GetLiveStreams(ctx context.Context) ([]*LiveStream, error)
	GetLiveCategories(ctx context.Context) ([]Category, error)

	GetMovies(ctx context.Context) ([]*Movie, error)
	GetVodCategories(ctx context.Context) ([]Category, error)

	GetSeries(ctx context.Context) ([]*Series, error)
	GetSeriesCategories(ctx context.Context) ([]Category, error)
	GetSeriesInfo(ctx context.Context, seriesID string) (*SeriesInfo, error)

	// Pure playback URL templates, no network calls
	LiveStreamURL(streamID int) string
	MovieStreamURL(streamID int) string
	SeriesStreamURL(episodeID string) string
}

// Store is the profile-scoped persistent cache consumed by the catalog
// service. Implemented by store.CacheStore.
//
// Get never fails for malformed persisted payloads; those count as misses.
// Set persistence failures are handled internally (the in-memory copy stays
// authoritative for the session), so callers treat Set errors as advisory.
type Store interface {
	// Set writes value under (logicalKey, profileID) with the current timestamp
	Set(logicalKey, profileID string, value any) error

	// Get unmarshals a non-expired entry into dest, reporting whether one existed
	Get(logicalKey, profileID string, dest any) bool

	// ClearKey removes one composite key from both tiers
	ClearKey(logicalKey, profileID string)

	// ClearPrefix removes every key under (logicalPrefix, profileID)
	ClearPrefix(logicalPrefix, profileID string)

	// Clear removes every entry scoped to profileID from both tiers
	Clear(profileID string)

	// ClearAll flushes everything
	ClearAll()
}
