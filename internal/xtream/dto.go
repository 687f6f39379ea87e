package xtream

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Xtream-Codes panels are wildly inconsistent about numeric fields: the same
// endpoint returns category_id as a string on one panel and a number on
// another. flexString and flexInt absorb both forms.

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	// Bare number; keep its textual form
	*f = flexString(string(b))
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil // tolerate junk, absent beats failing the whole list
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		// Some panels emit floats for ids
		var fl float64
		if err := json.Unmarshal(b, &fl); err != nil {
			return err
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}

// rawLiveStream is one element of the get_live_streams response
type rawLiveStream struct {
	StreamID     flexInt    `json:"stream_id"`
	Name         string     `json:"name"`
	StreamIcon   string     `json:"stream_icon"`
	EPGChannelID flexString `json:"epg_channel_id"`
	IsAdult      flexString `json:"is_adult"`
	CategoryID   flexString `json:"category_id"`
}

// rawMovie is one element of the get_vod_streams response
type rawMovie struct {
	StreamID    flexInt    `json:"stream_id"`
	Name        string     `json:"name"`
	StreamIcon  string     `json:"stream_icon"`
	Cover       string     `json:"cover"`
	CategoryID  flexString `json:"category_id"`
	Plot        string     `json:"plot"`
	Cast        string     `json:"cast"`
	Director    string     `json:"director"`
	Genre       string     `json:"genre"`
	ReleaseDate string     `json:"releaseDate"`
	Duration    string     `json:"duration"`
	Rating      flexString `json:"rating"`
}

// rawSeries is one element of the get_series response
type rawSeries struct {
	SeriesID    flexInt    `json:"series_id"`
	Name        string     `json:"name"`
	Cover       string     `json:"cover"`
	CategoryID  flexString `json:"category_id"`
	Plot        string     `json:"plot"`
	Cast        string     `json:"cast"`
	Director    string     `json:"director"`
	Genre       string     `json:"genre"`
	ReleaseDate string     `json:"releaseDate"`
	Rating      flexString `json:"rating"`
}

// rawCategory is one element of the get_*_categories responses
type rawCategory struct {
	CategoryID   flexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     flexInt    `json:"parent_id"`
}

// rawSeriesInfo is the get_series_info response (a JSON object, not an array)
type rawSeriesInfo struct {
	Info     rawSeriesDetail         `json:"info"`
	Seasons  []rawSeason             `json:"seasons"`
	Episodes map[string][]rawEpisode `json:"episodes"` // keyed by season number
}

type rawSeriesDetail struct {
	Name        string     `json:"name"`
	Cover       string     `json:"cover"`
	CategoryID  flexString `json:"category_id"`
	Plot        string     `json:"plot"`
	Cast        string     `json:"cast"`
	Director    string     `json:"director"`
	Genre       string     `json:"genre"`
	ReleaseDate string     `json:"releaseDate"`
	Rating      flexString `json:"rating"`
}

type rawSeason struct {
	SeasonNumber flexInt `json:"season_number"`
	Name         string  `json:"name"`
}

type rawEpisode struct {
	ID         flexString     `json:"id"`
	Title      string         `json:"title"`
	EpisodeNum flexInt        `json:"episode_num"`
	Season     flexInt        `json:"season"`
	Info       rawEpisodeInfo `json:"info"`
}

type rawEpisodeInfo struct {
	Plot        string `json:"plot"`
	Duration    string `json:"duration"`
	ReleaseDate string `json:"releasedate"`
}
