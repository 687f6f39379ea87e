package domain

import "time"

// StreamType distinguishes catalog content types
type StreamType string

const (
	StreamTypeLive   StreamType = "live"
	StreamTypeMovie  StreamType = "movie"
	StreamTypeSeries StreamType = "series"
)

// Profile identifies a remote Xtream-Codes backend. Its ID is the scoping
// dimension for every cache entry belonging to that backend.
type Profile struct {
	ID        string    `mapstructure:"id" json:"id"`
	Name      string    `mapstructure:"name" json:"name"`
	URL       string    `mapstructure:"url" json:"url"`
	Username  string    `mapstructure:"username" json:"username"`
	Password  string    `mapstructure:"password" json:"password"`
	CreatedAt time.Time `mapstructure:"created_at" json:"createdAt"`
	UpdatedAt time.Time `mapstructure:"updated_at" json:"updatedAt"`
}

// IsComplete reports whether the profile has everything needed to talk to
// the backend.
func (p Profile) IsComplete() bool {
	return p.URL != "" && p.Username != "" && p.Password != ""
}

// Category is a server-side grouping of streams
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parentId,omitempty"`
}

// LiveStream is a live TV channel
type LiveStream struct {
	ID           string     `json:"id"` // StreamID coerced to string
	StreamID     int        `json:"streamId"`
	Name         string     `json:"name"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	StreamType   StreamType `json:"streamType"`
	EPGChannelID string     `json:"epgChannelId,omitempty"`
	IsAdult      bool       `json:"isAdult,omitempty"`
	CategoryID   string     `json:"categoryId,omitempty"`
}

// Movie is a VOD item
type Movie struct {
	ID          string     `json:"id"`
	StreamID    int        `json:"streamId"`
	Name        string     `json:"name"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	StreamType  StreamType `json:"streamType"`
	CategoryID  string     `json:"categoryId,omitempty"`
	Plot        string     `json:"plot,omitempty"`
	Cast        string     `json:"cast,omitempty"`
	Director    string     `json:"director,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Rating      string     `json:"rating,omitempty"`
}

// Series is a show container; episodes come from GetSeriesInfo
type Series struct {
	ID          string     `json:"id"`
	SeriesID    int        `json:"seriesId"`
	Name        string     `json:"name"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	StreamType  StreamType `json:"streamType"`
	CategoryID  string     `json:"categoryId,omitempty"`
	Plot        string     `json:"plot,omitempty"`
	Cast        string     `json:"cast,omitempty"`
	Director    string     `json:"director,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	Rating      string     `json:"rating,omitempty"`
	Seasons     []int      `json:"seasons,omitempty"`
}

// Episode is a single playable episode within a series
type Episode struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Plot          string `json:"plot,omitempty"`
	Duration      string `json:"duration,omitempty"`
	ReleaseDate   string `json:"releaseDate,omitempty"`
}

/// SeriesInfo is the detail view of a series: metadata plus all episodes,
// flattened across seasons.
type SeriesInfo struct {
	Series   Series    `json:"series"`
	Episodes []Episode `json:"episodes"`
}

// EpisodesForSeason returns the episodes belonging to one season, in the
// order the server returned them.
func (si SeriesInfo) EpisodesForSeason(season int) []Episode {
	var out []Episode
	for _, ep := range si.Episodes {
		if ep.SeasonNumber == season {
			out = append(out, ep)
		}
	}
	return out
}

// Favorite is a bookmarked catalog entry, persisted per profile and removed
// with it. Enough of the entry is denormalized that the favorites view can
// render and start playback without refetching the catalog.
type Favorite struct {
	ProfileID  string     `mapstructure:"profile_id" json:"profileId"`
	EntryID    string     `mapstructure:"entry_id" json:"entryId"`
	StreamID   int        `mapstructure:"stream_id" json:"streamId"`
	Name       string     `mapstructure:"name" json:"name"`
	Thumbnail  string     `mapstructure:"thumbnail" json:"thumbnail"`
	StreamType StreamType `mapstructure:"stream_type" json:"streamType"`
	CategoryID string     `mapstructure:"category_id" json:"categoryId"`
	AddedAt    time.Time  `mapstructure:"added_at" json:"addedAt"`
}

// FavoriteOf snapshots a list entry for persistence under a profile.
func FavoriteOf(profileID string, e ListEntry) Favorite {
	f := Favorite{
		ProfileID:  profileID,
		EntryID:    e.GetID(),
		Name:       e.GetName(),
		Thumbnail:  e.GetThumbnail(),
		StreamType: e.GetStreamType(),
		CategoryID: e.GetCategoryID(),
		AddedAt:    time.Now(),
	}
	switch v := e.(type) {
	case *LiveStream:
		f.StreamID = v.StreamID
	case *Movie:
		f.StreamID = v.StreamID
	case *Series:
		f.StreamID = v.SeriesID
	}
	return f
}

// ListEntry reconstructs the displayable entry from the snapshot.
func (f Favorite) ListEntry() ListEntry {
	switch f.StreamType {
	case StreamTypeLive:
		return &LiveStream{
			ID:         f.EntryID,
			StreamID:   f.StreamID,
			Name:       f.Name,
			Thumbnail:  f.Thumbnail,
			StreamType: StreamTypeLive,
			CategoryID: f.CategoryID,
		}
	case StreamTypeMovie:
		return &Movie{
			ID:         f.EntryID,
			StreamID:   f.StreamID,
			Name:       f.Name,
			Thumbnail:  f.Thumbnail,
			StreamType: StreamTypeMovie,
			CategoryID: f.CategoryID,
		}
	default:
		return &Series{
			ID:         f.EntryID,
			SeriesID:   f.StreamID,
			Name:       f.Name,
			Thumbnail:  f.Thumbnail,
			StreamType: StreamTypeSeries,
			CategoryID: f.CategoryID,
		}
	}
}

// ListEntry is the polymorphic interface for items displayed in catalog
// lists. LiveStream, Movie, and Series implement it.
type ListEntry interface {
	// GetID returns the uniform string identity for this item
	GetID() string

	// GetName returns the display name
	GetName() string

	// GetThumbnail returns the poster/icon URL ("" if none)
	GetThumbnail() string

	// GetStreamType returns the content discriminant
	GetStreamType() StreamType

	// GetCategoryID returns the owning category ("" if uncategorized)
	GetCategoryID() string
}

func (s *LiveStream) GetID() string             { return s.ID }
func (s *LiveStream) GetName() string           { return s.Name }
func (s *LiveStream) GetThumbnail() string      { return s.Thumbnail }
func (s *LiveStream) GetStreamType() StreamType { return StreamTypeLive }
func (s *LiveStream) GetCategoryID() string     { return s.CategoryID }

func (m *Movie) GetID() string             { return m.ID }
func (m *Movie) GetName() string           { return m.Name }
func (m *Movie) GetThumbnail() string      { return m.Thumbnail }
func (m *Movie) GetStreamType() StreamType { return StreamTypeMovie }
func (m *Movie) GetCategoryID() string     { return m.CategoryID }

func (s *Series) GetID() string             { return s.ID }
func (s *Series) GetName() string           { return s.Name }
func (s *Series) GetThumbnail() string      { return s.Thumbnail }
func (s *Series) GetStreamType() StreamType { return StreamTypeSeries }
func (s *Series) GetCategoryID() string     { return s.CategoryID }
