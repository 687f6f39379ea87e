package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/strix/internal/domain"
)

// Commands bridging the coordinator into bubbletea. Every command captures
// the generation it was issued under so the Update loop can drop results
// that arrive after a profile/view switch.

func (m *Model) loadEntries(view View, gen int) tea.Cmd {
	profile := m.profile
	categoryID := m.selectedCategoryID()
	return func() tea.Msg {
		ctx := context.Background()
		var entries []domain.ListEntry

		switch view {
		case ViewLive:
			streams, err := m.svc.LiveStreams(ctx, profile, categoryID)
			if err != nil {
				return ErrMsg{Err: err, Context: "loading live channels", Gen: gen}
			}
			for _, s := range streams {
				entries = append(entries, s)
			}
		case ViewMovies:
			movies, err := m.svc.Movies(ctx, profile, categoryID)
			if err != nil {
				return ErrMsg{Err: err, Context: "loading movies", Gen: gen}
			}
			for _, mv := range movies {
				entries = append(entries, mv)
			}
		case ViewSeries:
			series, err := m.svc.Series(ctx, profile, categoryID)
			if err != nil {
				return ErrMsg{Err: err, Context: "loading series", Gen: gen}
			}
			for _, s := range series {
				entries = append(entries, s)
			}
		}
		return EntriesLoadedMsg{View: view, Entries: entries, Gen: gen}
	}
}

func (m *Model) loadCategories(view View, gen int) tea.Cmd {
	profile := m.profile
	return func() tea.Msg {
		ctx := context.Background()
		var (
			cats []domain.Category
			err  error
		)
		switch view {
		case ViewLive:
			cats, err = m.svc.LiveCategories(ctx, profile)
		case ViewMovies:
			cats, err = m.svc.MovieCategories(ctx, profile)
		case ViewSeries:
			cats, err = m.svc.SeriesCategories(ctx, profile)
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "loading categories", Gen: gen}
		}
		return CategoriesLoadedMsg{View: view, Categories: cats, Gen: gen}
	}
}

func (m *Model) loadSeriesInfo(seriesID string, gen int) tea.Cmd {
	profile := m.profile
	return func() tea.Msg {
		info, err := m.svc.SeriesInfo(context.Background(), profile, seriesID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading series detail", Gen: gen}
		}
		return SeriesInfoLoadedMsg{Info: info, Gen: gen}
	}
}

func (m *Model) refreshAll(gen int) tea.Cmd {
	profileID := m.profile.ID
	return func() tea.Msg {
		m.svc.RefreshAll(profileID)
		return RefreshedMsg{Gen: gen}
	}
}

func (m *Model) play(entry domain.ListEntry) tea.Cmd {
	profile := m.profile
	return func() tea.Msg {
		url, err := m.svc.StreamURL(profile, entry)
		if err != nil {
			return ErrMsg{Err: err, Context: "resolving stream url"}
		}
		if err := m.launcher.Launch(url, entry.GetName()); err != nil {
			return ErrMsg{Err: err, Context: "launching player"}
		}
		return PlaybackStartedMsg{Title: entry.GetName()}
	}
}

func (m *Model) playEpisode(ep domain.Episode) tea.Cmd {
	profile := m.profile
	return func() tea.Msg {
		url, err := m.svc.EpisodeURL(profile, ep)
		if err != nil {
			return ErrMsg{Err: err, Context: "resolving episode url"}
		}
		if err := m.launcher.Launch(url, ep.Title); err != nil {
			return ErrMsg{Err: err, Context: "launching player"}
		}
		return PlaybackStartedMsg{Title: ep.Title}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
