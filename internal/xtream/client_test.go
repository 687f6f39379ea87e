package xtream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/strix/internal/domain"
)

func testProfile(url string) domain.Profile {
	return domain.Profile{ID: "p1", Name: "Test", URL: url, Username: "user", Password: "pass"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(testProfile(srv.URL), slog.New(slog.DiscardHandler),
		WithBackoff(time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestNewClient_IncompleteProfile(t *testing.T) {
	for _, p := range []domain.Profile{
		{Username: "u", Password: "p"},
		{URL: "http://x", Password: "p"},
		{URL: "http://x", Username: "u"},
	} {
		_, err := NewClient(p, nil)
		assert.ErrorIs(t, err, domain.ErrProfileIncomplete)
	}
}

func TestClient_RequestShape(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `[]`)
	})

	_, err := c.GetLiveStreams(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/player_api.php", gotPath)
	assert.Contains(t, gotQuery, "action=get_live_streams")
	assert.Contains(t, gotQuery, "username=user")
	assert.Contains(t, gotQuery, "password=pass")
}

func TestClient_Retry(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `[{"stream_id":1,"name":"One"}]`)
		})

		streams, err := c.GetLiveStreams(context.Background())
		require.NoError(t, err)
		assert.Len(t, streams, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.GetLiveStreams(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(3), calls.Load())

		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})

	t.Run("cancellation stops the retry loop", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		c, err := NewClient(testProfile(srv.URL), slog.New(slog.DiscardHandler),
			WithBackoff(time.Hour)) // retry delay far beyond the test
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = c.GetLiveStreams(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_ShapeValidation(t *testing.T) {
	t.Run("object where an array is expected", func(t *testing.T) {
		// Panels report auth failures as a 200 with an error object.
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"user_info":{"auth":0}}`)
		})

		_, err := c.GetLiveStreams(context.Background())
		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, apiErr.Message, "expected array")
	})

	t.Run("array where an object is expected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		})

		_, err := c.GetSeriesInfo(context.Background(), "42")
		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, apiErr.Message, "expected object")
	})

	t.Run("unparseable body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"stream_id":`)
		})

		_, err := c.GetLiveStreams(context.Background())
		assert.True(t, domain.IsAPIError(err))
	})
}

func TestClient_FieldCoercion(t *testing.T) {
	// The same panel fields arrive as strings, numbers, or null depending on
	// the panel software; all forms must map.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"stream_id":"101","name":"String ID","category_id":7,"is_adult":"1"},
			{"stream_id":102,"name":"Number ID","category_id":"8","epg_channel_id":null},
			{"stream_id":103.0,"name":"Float ID","category_id":null}
		]`)
	})

	streams, err := c.GetLiveStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 3)

	assert.Equal(t, "101", streams[0].ID)
	assert.Equal(t, 101, streams[0].StreamID)
	assert.Equal(t, "7", streams[0].CategoryID)
	assert.True(t, streams[0].IsAdult)

	assert.Equal(t, "102", streams[1].ID)
	assert.Equal(t, "8", streams[1].CategoryID)
	assert.False(t, streams[1].IsAdult)

	assert.Equal(t, 103, streams[2].StreamID)
	assert.Equal(t, "", streams[2].CategoryID)
}

func TestClient_GetSeriesInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "series_id=42")
		fmt.Fprint(w, `{
			"info": {"name":"The Show","cover":"http://img/1.png","category_id":"9"},
			"seasons": [{"season_number":2},{"season_number":1}],
			"episodes": {
				"2": [{"id":"201","title":"S2E1","episode_num":1,"info":{"duration":"00:42:00"}}],
				"1": [
					{"id":"102","title":"S1E2","episode_num":2},
					{"id":"101","title":"S1E1","episode_num":1}
				]
			}
		}`)
	})

	info, err := c.GetSeriesInfo(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "42", info.Series.ID)
	assert.Equal(t, 42, info.Series.SeriesID)
	assert.Equal(t, "The Show", info.Series.Name)
	assert.Equal(t, []int{1, 2}, info.Series.Seasons)

	require.Len(t, info.Episodes, 3)
	assert.Equal(t, "S1E1", info.Episodes[0].Title)
	assert.Equal(t, "S1E2", info.Episodes[1].Title)
	assert.Equal(t, "S2E1", info.Episodes[2].Title)
	assert.Equal(t, 2, info.Episodes[2].SeasonNumber)
	assert.Equal(t, "00:42:00", info.Episodes[2].Duration)
}

func TestClient_StreamURLs(t *testing.T) {
	c, err := NewClient(testProfile("http://panel.example.com:8080"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.Equal(t, "http://panel.example.com:8080/live/user/pass/55.m3u8", c.LiveStreamURL(55))
	assert.Equal(t, "http://panel.example.com:8080/movie/user/pass/77.ts", c.MovieStreamURL(77))
	assert.Equal(t, "http://panel.example.com:8080/series/user/pass/e9.ts", c.SeriesStreamURL("e9"))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://host:8080", normalizeBaseURL("host:8080"))
	assert.Equal(t, "http://host", normalizeBaseURL("http://host/"))
	assert.Equal(t, "https://host", normalizeBaseURL("https://host"))
}
