package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/strix/internal/domain"
)

// ClientFactory builds a catalog client for a profile. Injected so tests can
// substitute a fake backend; the default wraps xtream.NewClient.
type ClientFactory func(domain.Profile) (domain.CatalogClient, error)

// Service coordinates catalog reads between the cache store and the remote
// backend. A result, once fetched, is served from the store until explicit
// invalidation (RefreshAll or profile deletion) or until the store's TTL
// lapses; the TTL applies to entries hydrated from a previous run and,
// within a long-lived session, to entries fetched by this one. Concurrent
// requests for the same (profile, kind, filter) share a single upstream
// fetch.
type Service struct {
	store     domain.Store
	newClient ClientFactory
	logger    *slog.Logger

	group singleflight.Group

	mu         sync.Mutex
	lastUpdate time.Time // last successful movies fetch
}

// NewService creates the coordinator. One instance per process, injected
// into the TUI.
func NewService(store domain.Store, newClient ClientFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, newClient: newClient, logger: logger}
}

// query is the cached-fetch spine shared by every resource kind: store hit
// wins, otherwise a singleflight fetch writes through and returns. onFetch
// runs once per actual upstream fetch.
func query[T any](
	ctx context.Context,
	s *Service,
	profile domain.Profile,
	key string,
	fetch func(context.Context, domain.CatalogClient) (T, error),
	onFetch func(),
) (T, error) {
	var zero T

	var cached T
	if s.store.Get(key, profile.ID, &cached) {
		s.logger.Debug("cache hit", "key", key, "profile", profile.ID)
		return cached, nil
	}

	v, err, shared := s.group.Do(profile.ID+":"+key, func() (any, error) {
		// A racing caller may have populated the store while this flight
		// was queued.
		var prior T
		if s.store.Get(key, profile.ID, &prior) {
			return prior, nil
		}

		client, err := s.newClient(profile)
		if err != nil {
			return nil, err
		}
		result, err := fetch(ctx, client)
		if err != nil {
			s.logger.Error("catalog fetch failed", "key", key, "profile", profile.ID, "error", err)
			return nil, err
		}
		if err := s.store.Set(key, profile.ID, result); err != nil {
			s.logger.Warn("failed to cache catalog result", "key", key, "error", err)
		}
		if onFetch != nil {
			onFetch()
		}
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		s.logger.Debug("joined in-flight fetch", "key", key, "profile", profile.ID)
	}
	return v.(T), nil
}

// LiveStreams returns all live channels for the profile, filtered to one
// category when categoryID is non-empty. The unfiltered set is what gets
// cached; filtering happens in memory per call.
func (s *Service) LiveStreams(ctx context.Context, profile domain.Profile, categoryID string) ([]*domain.LiveStream, error) {
	streams, err := query(ctx, s, profile, KeyLiveStreams,
		func(ctx context.Context, c domain.CatalogClient) ([]*domain.LiveStream, error) {
			return c.GetLiveStreams(ctx)
		}, nil)
	if err != nil {
		return nil, err
	}
	return filterByCategory(streams, categoryID), nil
}

// Movies returns all VOD items for the profile, optionally category-filtered.
// A successful upstream fetch records the catalog update time.
func (s *Service) Movies(ctx context.Context, profile domain.Profile, categoryID string) ([]*domain.Movie, error) {
	movies, err := query(ctx, s, profile, KeyMovies,
		func(ctx context.Context, c domain.CatalogClient) ([]*domain.Movie, error) {
			return c.GetMovies(ctx)
		},
		func() {
			s.mu.Lock()
			s.lastUpdate = time.Now()
			s.mu.Unlock()
		})
	if err != nil {
		return nil, err
	}
	return filterByCategory(movies, categoryID), nil
}

// Series returns all series containers for the profile, optionally
// category-filtered.
func (s *Service) Series(ctx context.Context, profile domain.Profile, categoryID string) ([]*domain.Series, error) {
	series, err := query(ctx, s, profile, KeySeries,
		func(ctx context.Context, c domain.CatalogClient) ([]*domain.Series, error) {
			return c.GetSeries(ctx)
		}, nil)
	if err != nil {
		return nil, err
	}
	return filterByCategory(series, categoryID), nil
}

// SeriesInfo returns the detail view (metadata plus episodes) of one series.
func (s *Service) SeriesInfo(ctx context.Context, profile domain.Profile, seriesID string) (*domain.SeriesInfo, error) {
	return query(ctx, s, profile, PrefixSeriesInfo+seriesID,
		func(ctx context.Context, c domain.CatalogClient) (*domain.SeriesInfo, error) {
			return c.GetSeriesInfo(ctx, seriesID)
		}, nil)
}

func (s *Service) LiveCategories(ctx context.Context, profile domain.Profile) ([]domain.Category, error) {
	return query(ctx, s, profile, KeyLiveCategories,
		func(ctx context.Context, c domain.CatalogClient) ([]domain.Category, error) {
			return c.GetLiveCategories(ctx)
		}, nil)
}

func (s *Service) MovieCategories(ctx context.Context, profile domain.Profile) ([]domain.Category, error) {
	return query(ctx, s, profile, KeyMovieCategories,
		func(ctx context.Context, c domain.CatalogClient) ([]domain.Category, error) {
			return c.GetVodCategories(ctx)
		}, nil)
}

func (s *Service) SeriesCategories(ctx context.Context, profile domain.Profile) ([]domain.Category, error) {
	return query(ctx, s, profile, KeySeriesCategories,
		func(ctx context.Context, c domain.CatalogClient) ([]domain.Category, error) {
			return c.GetSeriesCategories(ctx)
		}, nil)
}

// RefreshAll invalidates every tracked resource kind for one profile,
// forcing the next access of each to refetch. Returns once invalidation
// bookkeeping completes; nothing is eagerly refetched.
func (s *Service) RefreshAll(profileID string) {
	for _, key := range trackedKeys() {
		s.store.ClearKey(key, profileID)
	}
	s.store.ClearPrefix(PrefixSeriesInfo, profileID)
	s.logger.Info("invalidated catalog cache", "profile", profileID)
}

// LastUpdateTime returns when movies were last fetched from the backend, or
// the zero time if never. Display-only.
func (s *Service) LastUpdateTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

// OnProfileDeleted evicts everything scoped to a removed profile.
func (s *Service) OnProfileDeleted(profileID string) {
	s.store.Clear(profileID)
	s.logger.Info("cleared cache for deleted profile", "profile", profileID)
}

// StreamURL resolves the playback URL for a live channel or movie. Series
// containers have no direct URL; play an episode via EpisodeURL.
func (s *Service) StreamURL(profile domain.Profile, entry domain.ListEntry) (string, error) {
	client, err := s.newClient(profile)
	if err != nil {
		return "", err
	}
	switch e := entry.(type) {
	case *domain.LiveStream:
		return client.LiveStreamURL(e.StreamID), nil
	case *domain.Movie:
		return client.MovieStreamURL(e.StreamID), nil
	default:
		return "", fmt.Errorf("no direct stream url for %s %q", entry.GetStreamType(), entry.GetID())
	}
}

// EpisodeURL resolves the playback URL for one episode.
func (s *Service) EpisodeURL(profile domain.Profile, ep domain.Episode) (string, error) {
	client, err := s.newClient(profile)
	if err != nil {
		return "", err
	}
	return client.SeriesStreamURL(ep.ID), nil
}

// filterByCategory narrows a catalog list to one category; an empty
// categoryID passes everything through.
func filterByCategory[T domain.ListEntry](items []T, categoryID string) []T {
	if categoryID == "" {
		return items
	}
	out := make([]T, 0)
	for _, item := range items {
		if item.GetCategoryID() == categoryID {
			out = append(out, item)
		}
	}
	return out
}
