package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/strix/internal/catalog"
	"github.com/mmcdole/strix/internal/domain"
	"github.com/mmcdole/strix/internal/store"
)

// mockBackend is a fake panel with canned catalog data and per-method call
// counters.
type mockBackend struct {
	liveCalls       atomic.Int32
	movieCalls      atomic.Int32
	seriesCalls     atomic.Int32
	seriesInfoCalls atomic.Int32
	categoryCalls   atomic.Int32

	live   []*domain.LiveStream
	movies []*domain.Movie
	series []*domain.Series
	info   map[string]*domain.SeriesInfo

	err error
}

func (m *mockBackend) GetLiveStreams(context.Context) ([]*domain.LiveStream, error) {
	m.liveCalls.Add(1)
	return m.live, m.err
}

func (m *mockBackend) GetMovies(context.Context) ([]*domain.Movie, error) {
	m.movieCalls.Add(1)
	return m.movies, m.err
}

func (m *mockBackend) GetSeries(context.Context) ([]*domain.Series, error) {
	m.seriesCalls.Add(1)
	return m.series, m.err
}

func (m *mockBackend) GetSeriesInfo(_ context.Context, seriesID string) (*domain.SeriesInfo, error) {
	m.seriesInfoCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	info, ok := m.info[seriesID]
	if !ok {
		return nil, domain.ErrSeriesNotFound
	}
	return info, nil
}

func (m *mockBackend) GetLiveCategories(context.Context) ([]domain.Category, error) {
	m.categoryCalls.Add(1)
	return []domain.Category{{ID: "1", Name: "News"}}, m.err
}

func (m *mockBackend) GetVodCategories(context.Context) ([]domain.Category, error) {
	m.categoryCalls.Add(1)
	return []domain.Category{{ID: "5", Name: "Action"}}, m.err
}

func (m *mockBackend) GetSeriesCategories(context.Context) ([]domain.Category, error) {
	m.categoryCalls.Add(1)
	return []domain.Category{{ID: "9", Name: "Drama"}}, m.err
}

func (m *mockBackend) LiveStreamURL(streamID int) string {
	return fmt.Sprintf("http://panel/live/u/p/%d.m3u8", streamID)
}

func (m *mockBackend) MovieStreamURL(streamID int) string {
	return fmt.Sprintf("http://panel/movie/u/p/%d.ts", streamID)
}

func (m *mockBackend) SeriesStreamURL(episodeID string) string {
	return fmt.Sprintf("http://panel/series/u/p/%s.ts", episodeID)
}

func makeMovies(n int, categoryEvery int) []*domain.Movie {
	movies := make([]*domain.Movie, n)
	for i := range movies {
		cat := "1"
		if categoryEvery > 0 && i%categoryEvery == 0 {
			cat = "5"
		}
		movies[i] = &domain.Movie{
			ID:         fmt.Sprintf("%d", i),
			StreamID:   i,
			Name:       fmt.Sprintf("Movie %d", i),
			StreamType: domain.StreamTypeMovie,
			CategoryID: cat,
		}
	}
	return movies
}

func makeStreams(n int) []*domain.LiveStream {
	streams := make([]*domain.LiveStream, n)
	for i := range streams {
		streams[i] = &domain.LiveStream{
			ID:         fmt.Sprintf("%d", i),
			StreamID:   i,
			Name:       fmt.Sprintf("Channel %d", i),
			StreamType: domain.StreamTypeLive,
			CategoryID: "1",
		}
	}
	return streams
}

func newTestService(t *testing.T, backend *mockBackend) *catalog.Service {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	st, err := store.NewCacheStore("", 0, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return catalog.NewService(st, func(domain.Profile) (domain.CatalogClient, error) {
		return backend, nil
	}, logger)
}

var testProfile = domain.Profile{ID: "p1", Name: "Home", URL: "http://panel", Username: "u", Password: "p"}

func TestService_ConcurrentDedup(t *testing.T) {
	backend := &mockBackend{live: makeStreams(150)}
	svc := newTestService(t, backend)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			streams, err := svc.LiveStreams(ctx, testProfile, "")
			assert.NoError(t, err)
			assert.Len(t, streams, 150)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.liveCalls.Load(),
		"concurrent identical requests must share one upstream fetch")

	// A later call is a plain cache hit.
	_, err := svc.LiveStreams(ctx, testProfile, "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.liveCalls.Load())
}

func TestService_CategoryFilter(t *testing.T) {
	backend := &mockBackend{movies: makeMovies(150, 5)} // every 5th in category 5
	svc := newTestService(t, backend)
	ctx := context.Background()

	filtered, err := svc.Movies(ctx, testProfile, "5")
	require.NoError(t, err)
	assert.Len(t, filtered, 30)
	for _, m := range filtered {
		assert.Equal(t, "5", m.CategoryID)
	}

	// The cache holds the unfiltered set, so switching category refilters
	// without refetching.
	all, err := svc.Movies(ctx, testProfile, "")
	require.NoError(t, err)
	assert.Len(t, all, 150)
	assert.Equal(t, int32(1), backend.movieCalls.Load())

	none, err := svc.Movies(ctx, testProfile, "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, int32(1), backend.movieCalls.Load())
}

func TestService_RefreshAll(t *testing.T) {
	backend := &mockBackend{
		movies: makeMovies(10, 0),
		live:   makeStreams(10),
		info: map[string]*domain.SeriesInfo{
			"42": {
				Series:   domain.Series{ID: "42", Name: "Show"},
				Episodes: []domain.Episode{{ID: "100", Title: "Pilot", SeasonNumber: 1, EpisodeNumber: 1}},
			},
		},
	}
	svc := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.Movies(ctx, testProfile, "")
	require.NoError(t, err)
	_, err = svc.LiveStreams(ctx, testProfile, "")
	require.NoError(t, err)
	_, err = svc.SeriesInfo(ctx, testProfile, "42")
	require.NoError(t, err)

	svc.RefreshAll(testProfile.ID)

	t.Run("next access of each kind refetches", func(t *testing.T) {
		_, err := svc.Movies(ctx, testProfile, "")
		require.NoError(t, err)
		_, err = svc.LiveStreams(ctx, testProfile, "")
		require.NoError(t, err)
		assert.Equal(t, int32(2), backend.movieCalls.Load())
		assert.Equal(t, int32(2), backend.liveCalls.Load())
	})

	t.Run("series detail entries are invalidated too", func(t *testing.T) {
		_, err := svc.SeriesInfo(ctx, testProfile, "42")
		require.NoError(t, err)
		assert.Equal(t, int32(2), backend.seriesInfoCalls.Load())
	})
}

func TestService_LastUpdateTime(t *testing.T) {
	backend := &mockBackend{movies: makeMovies(5, 0)}
	svc := newTestService(t, backend)
	ctx := context.Background()

	assert.True(t, svc.LastUpdateTime().IsZero(), "zero before any fetch")

	_, err := svc.Movies(ctx, testProfile, "")
	require.NoError(t, err)
	first := svc.LastUpdateTime()
	assert.False(t, first.IsZero())

	// A cache hit must not move the timestamp.
	_, err = svc.Movies(ctx, testProfile, "")
	require.NoError(t, err)
	assert.Equal(t, first, svc.LastUpdateTime())
}

func TestService_ProfileIsolation(t *testing.T) {
	backend := &mockBackend{live: makeStreams(5)}
	svc := newTestService(t, backend)
	ctx := context.Background()

	other := domain.Profile{ID: "p2", Name: "Work", URL: "http://panel", Username: "u2", Password: "p2"}

	_, err := svc.LiveStreams(ctx, testProfile, "")
	require.NoError(t, err)
	_, err = svc.LiveStreams(ctx, other, "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.liveCalls.Load(), "profiles never share cache entries")

	svc.OnProfileDeleted(testProfile.ID)

	_, err = svc.LiveStreams(ctx, other, "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.liveCalls.Load(), "other profile survives deletion")

	_, err = svc.LiveStreams(ctx, testProfile, "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), backend.liveCalls.Load())
}

func TestService_FetchErrorNotCached(t *testing.T) {
	boom := errors.New("panel unreachable")
	backend := &mockBackend{err: boom}
	svc := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.LiveStreams(ctx, testProfile, "")
	assert.ErrorIs(t, err, boom)

	// The failure must not poison the cache; a retry hits the backend again.
	backend.err = nil
	backend.live = makeStreams(3)
	streams, err := svc.LiveStreams(ctx, testProfile, "")
	require.NoError(t, err)
	assert.Len(t, streams, 3)
	assert.Equal(t, int32(2), backend.liveCalls.Load())
}

func TestService_StreamURLs(t *testing.T) {
	backend := &mockBackend{}
	svc := newTestService(t, backend)

	t.Run("live", func(t *testing.T) {
		url, err := svc.StreamURL(testProfile, &domain.LiveStream{ID: "7", StreamID: 7})
		require.NoError(t, err)
		assert.Equal(t, "http://panel/live/u/p/7.m3u8", url)
	})

	t.Run("movie", func(t *testing.T) {
		url, err := svc.StreamURL(testProfile, &domain.Movie{ID: "9", StreamID: 9})
		require.NoError(t, err)
		assert.Equal(t, "http://panel/movie/u/p/9.ts", url)
	})

	t.Run("series container has no direct url", func(t *testing.T) {
		_, err := svc.StreamURL(testProfile, &domain.Series{ID: "3"})
		assert.Error(t, err)
	})

	t.Run("episode", func(t *testing.T) {
		url, err := svc.EpisodeURL(testProfile, domain.Episode{ID: "e55"})
		require.NoError(t, err)
		assert.Equal(t, "http://panel/series/u/p/e55.ts", url)
	})
}
