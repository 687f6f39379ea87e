package xtream

import (
	"sort"
	"strconv"

	"github.com/mmcdole/strix/internal/domain"
)

// Mapping is pure and total: absent wire fields become zero values, and
// numeric server ids are coerced to string ids so every resource kind shares
// one identity type.

func mapLiveStream(raw rawLiveStream) *domain.LiveStream {
	return &domain.LiveStream{
		ID:           strconv.Itoa(int(raw.StreamID)),
		StreamID:     int(raw.StreamID),
		Name:         raw.Name,
		Thumbnail:    raw.StreamIcon,
		StreamType:   domain.StreamTypeLive,
		EPGChannelID: string(raw.EPGChannelID),
		IsAdult:      raw.IsAdult == "1",
		CategoryID:   string(raw.CategoryID),
	}
}

func mapMovie(raw rawMovie) *domain.Movie {
	thumb := raw.StreamIcon
	if thumb == "" {
		thumb = raw.Cover
	}
	return &domain.Movie{
		ID:          strconv.Itoa(int(raw.StreamID)),
		StreamID:    int(raw.StreamID),
		Name:        raw.Name,
		Thumbnail:   thumb,
		StreamType:  domain.StreamTypeMovie,
		CategoryID:  string(raw.CategoryID),
		Plot:        raw.Plot,
		Cast:        raw.Cast,
		Director:    raw.Director,
		Genre:       raw.Genre,
		ReleaseDate: raw.ReleaseDate,
		Duration:    raw.Duration,
		Rating:      string(raw.Rating),
	}
}

func mapSeries(raw rawSeries) *domain.Series {
	return &domain.Series{
		ID:          strconv.Itoa(int(raw.SeriesID)),
		SeriesID:    int(raw.SeriesID),
		Name:        raw.Name,
		Thumbnail:   raw.Cover,
		StreamType:  domain.StreamTypeSeries,
		CategoryID:  string(raw.CategoryID),
		Plot:        raw.Plot,
		Cast:        raw.Cast,
		Director:    raw.Director,
		Genre:       raw.Genre,
		ReleaseDate: raw.ReleaseDate,
		Rating:      string(raw.Rating),
	}
}

func mapCategory(raw rawCategory) domain.Category {
	return domain.Category{
		ID:       string(raw.CategoryID),
		Name:     raw.CategoryName,
		ParentID: int(raw.ParentID),
	}
}

func mapSeriesInfo(seriesID string, raw rawSeriesInfo) *domain.SeriesInfo {
	sid, _ := strconv.Atoi(seriesID)

	series := domain.Series{
		ID:          seriesID,
		SeriesID:    sid,
		Name:        raw.Info.Name,
		Thumbnail:   raw.Info.Cover,
		StreamType:  domain.StreamTypeSeries,
		CategoryID:  string(raw.Info.CategoryID),
		Plot:        raw.Info.Plot,
		Cast:        raw.Info.Cast,
		Director:    raw.Info.Director,
		Genre:       raw.Info.Genre,
		ReleaseDate: raw.Info.ReleaseDate,
		Rating:      string(raw.Info.Rating),
	}
	for _, s := range raw.Seasons {
		series.Seasons = append(series.Seasons, int(s.SeasonNumber))
	}
	sort.Ints(series.Seasons)

	var episodes []domain.Episode
	for seasonKey, eps := range raw.Episodes {
		seasonNum, _ := strconv.Atoi(seasonKey)
		for _, ep := range eps {
			season := int(ep.Season)
			if season == 0 {
				season = seasonNum
			}
			episodes = append(episodes, domain.Episode{
				ID:            string(ep.ID),
				Title:         ep.Title,
				SeasonNumber:  season,
				EpisodeNumber: int(ep.EpisodeNum),
				Plot:          ep.Info.Plot,
				Duration:      ep.Info.Duration,
				ReleaseDate:   ep.Info.ReleaseDate,
			})
		}
	}
	sort.Slice(episodes, func(i, j int) bool {
		if episodes[i].SeasonNumber != episodes[j].SeasonNumber {
			return episodes[i].SeasonNumber < episodes[j].SeasonNumber
		}
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})

	return &domain.SeriesInfo{Series: series, Episodes: episodes}
}
