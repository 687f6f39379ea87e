package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/strix/internal/catalog"
	"github.com/mmcdole/strix/internal/config"
	"github.com/mmcdole/strix/internal/domain"
	"github.com/mmcdole/strix/internal/player"
	"github.com/mmcdole/strix/internal/search"
	"github.com/mmcdole/strix/internal/tui/components"
	"github.com/mmcdole/strix/internal/tui/styles"
	"github.com/mmcdole/strix/internal/window"
)

// View identifies a browse surface
type View int

const (
	ViewLive View = iota
	ViewMovies
	ViewSeries
	ViewFavorites
	ViewSeriesDetail
)

// browseViews is the number of tabbed surfaces; ViewSeriesDetail sits
// outside the tab cycle.
const browseViews = 4

var viewTitles = map[View]string{
	ViewLive:      "Live TV",
	ViewMovies:    "Movies",
	ViewSeries:    "Series",
	ViewFavorites: "Favorites",
}

// entrySource holds the full loaded sequence for the current view; the
// pager exposes a growing prefix of it to the list.
type entrySource struct {
	all []domain.ListEntry
}

// Model is the main Bubble Tea model for the application
type Model struct {
	svc      *catalog.Service
	launcher *player.Launcher
	cfg      *config.Config
	profile  domain.Profile
	keys     KeyMap

	view View
	list *components.CatalogList

	src   *entrySource
	pager *window.Pager

	categories map[View][]domain.Category
	catIdx     int // -1 = all categories

	loading bool
	err     error
	errCtx  string

	// Ranked search across the whole loaded catalog, as opposed to the
	// list's incremental filter over the visible window.
	searchInput  textinput.Model
	searching    bool
	searchActive bool

	// Series drill-down state
	info          *domain.SeriesInfo
	episodeCursor int
	detailReturn  View // browse surface to restore on back

	status string
	width  int
	height int

	// gen invalidates in-flight results after profile/view/category
	// switches; messages carrying an older generation are dropped.
	gen int
}

// NewModel wires the TUI against the coordinator and launcher.
func NewModel(svc *catalog.Service, launcher *player.Launcher, cfg *config.Config, profile domain.Profile) Model {
	src := &entrySource{}
	pageSize := cfg.UI.PageSize
	if pageSize < 1 {
		pageSize = 24
	}

	si := textinput.New()
	si.Placeholder = "search catalog"
	si.Prompt = "search: "
	si.CharLimit = 80

	var pager *window.Pager
	pager = window.NewPager(pageSize, func(ctx context.Context) (int, bool, error) {
		next := pager.Loaded() + pageSize
		if next > len(src.all) {
			next = len(src.all)
		}
		return next, next < len(src.all), nil
	})

	return Model{
		svc:         svc,
		launcher:    launcher,
		cfg:         cfg,
		profile:     profile,
		keys:        DefaultKeyMap(),
		view:        ViewLive,
		list:        components.NewCatalogList(viewTitles[ViewLive], cfg.UI.WindowSize),
		src:         src,
		pager:       pager,
		searchInput: si,
		categories:  make(map[View][]domain.Category),
		catIdx:      -1,
		loading:     true,
		gen:         1, // 0 is reserved for non-generational messages
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadEntries(m.view, m.gen),
		m.loadCategories(m.view, m.gen),
		spinnerTick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case spinnerTickMsg:
		m.list.Tick()
		return m, spinnerTick()

	case EntriesLoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = nil
		m.list.SetLoading(false)
		m.setEntries(msg.Entries)
		return m, nil

	case CategoriesLoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.categories[msg.View] = msg.Categories
		return m, nil

	case SeriesInfoLoadedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.list.SetLoading(false)
		m.info = msg.Info
		m.episodeCursor = 0
		m.view = ViewSeriesDetail
		return m, nil

	case RefreshedMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.status = "catalog refreshed"
		cmd := m.reload()
		return m, cmd

	case PlaybackStartedMsg:
		m.status = "playing " + msg.Title
		return m, nil

	case ErrMsg:
		if msg.Gen != 0 && msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.list.SetLoading(false)
		m.err = msg.Err
		m.errCtx = msg.Context
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && !m.list.Filtering() && !m.searching {
		return m, tea.Quit
	}

	// Error state: retry or dismiss
	if m.err != nil {
		switch msg.String() {
		case "r", "enter":
			m.err = nil
			cmd := m.reload()
			return m, cmd
		case "esc", "q":
			m.err = nil
			return m, nil
		}
		return m, nil
	}

	if m.view == ViewSeriesDetail {
		return m.handleDetailKey(msg)
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	if m.list.Filtering() {
		return m, m.list.UpdateFilter(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.list.MoveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		if m.list.MoveCursor(1) {
			m.loadNextPage()
		}
	case key.Matches(msg, m.keys.PageUp):
		m.list.MoveCursor(-10)
	case key.Matches(msg, m.keys.PageDown):
		if m.list.MoveCursor(10) {
			m.loadNextPage()
		}
	case key.Matches(msg, m.keys.Home):
		m.list.MoveToTop()
	case key.Matches(msg, m.keys.End):
		if m.list.MoveToEnd() {
			m.loadNextPage()
		}
	case key.Matches(msg, m.keys.NextView):
		return m.switchView((m.view + 1) % browseViews)
	case key.Matches(msg, m.keys.PrevView):
		return m.switchView((m.view + browseViews - 1) % browseViews)
	case key.Matches(msg, m.keys.Filter):
		return m, m.list.StartFilter()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Back):
		if m.searchActive {
			m.exitSearch()
		}
		return m, nil
	case key.Matches(msg, m.keys.Category):
		return m.cycleCategory()
	case key.Matches(msg, m.keys.Profile):
		return m.cycleProfile()
	case key.Matches(msg, m.keys.Favorite):
		return m.toggleFavorite()
	case key.Matches(msg, m.keys.RefreshAll):
		m.status = "refreshing catalog..."
		return m, m.refreshAll(m.gen)
	case key.Matches(msg, m.keys.Enter):
		return m.openSelected()
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.info == nil {
		m.view = m.detailReturn
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Escape):
		m.info = nil
		m.view = m.detailReturn
	case key.Matches(msg, m.keys.Up):
		if m.episodeCursor > 0 {
			m.episodeCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.episodeCursor < len(m.info.Episodes)-1 {
			m.episodeCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if len(m.info.Episodes) > 0 {
			return m, m.playEpisode(m.info.Episodes[m.episodeCursor])
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		query := m.searchInput.Value()
		if query == "" {
			return m, nil
		}
		matches := search.Find(query, m.src.all)
		results := make([]domain.ListEntry, len(matches))
		for i, match := range matches {
			results[i] = match.Entry
		}
		m.searchActive = true
		m.list.SetTitle("Search · " + query)
		m.list.SetItems(results, false)
		m.list.MoveToTop()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// setEntries swaps in a freshly loaded sequence and re-seeds the pager with
// its first page.
func (m *Model) setEntries(entries []domain.ListEntry) {
	m.src.all = entries
	m.pager.Reset()
	m.pager.RequestMore(context.Background())
	m.list.SetItems(m.src.all[:m.pager.Loaded()], m.pager.HasMore())
}

// favoriteEntries materializes the current profile's bookmarks as list
// entries, in the order they were added.
func (m Model) favoriteEntries() []domain.ListEntry {
	favs := m.cfg.FavoritesFor(m.profile.ID)
	entries := make([]domain.ListEntry, 0, len(favs))
	for _, f := range favs {
		entries = append(entries, f.ListEntry())
	}
	return entries
}

// loadNextPage grows the pager frontier and re-slices the list. The load
// function is in-memory arithmetic over the already-fetched sequence, so it
// runs inline in the update loop; nothing touches the pager from a command
// goroutine.
func (m *Model) loadNextPage() {
	did, err := m.pager.RequestMore(context.Background())
	if err != nil || !did {
		return
	}
	m.list.SetItems(m.src.all[:m.pager.Loaded()], m.pager.HasMore())
}

// exitSearch restores the regular paged view after a ranked search.
func (m *Model) exitSearch() {
	m.searchActive = false
	m.searchInput.SetValue("")
	m.list.SetTitle(m.viewTitle())
	m.list.SetItems(m.src.all[:m.pager.Loaded()], m.pager.HasMore())
	m.list.MoveToTop()
}

// toggleFavorite bookmarks the selected entry for the current profile, or
// removes the bookmark if it already exists. Favorites are read and written
// only from the update loop, so config access needs no locking.
func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	entry := m.list.Selected()
	if entry == nil {
		return m, nil
	}
	if m.cfg.ToggleFavorite(domain.FavoriteOf(m.profile.ID, entry)) {
		m.status = "favorite added: " + entry.GetName()
	} else {
		m.status = "favorite removed: " + entry.GetName()
	}
	if err := config.SaveConfig(m.cfg); err != nil {
		m.status = "favorite not saved: " + err.Error()
	}
	if m.view == ViewFavorites && !m.searchActive {
		m.setEntries(m.favoriteEntries())
	}
	return m, nil
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	entry := m.list.Selected()
	if entry == nil {
		return m, nil
	}
	if series, ok := entry.(*domain.Series); ok {
		m.loading = true
		m.detailReturn = m.view
		m.list.SetLoading(true)
		return m, m.loadSeriesInfo(series.ID, m.gen)
	}
	return m, m.play(entry)
}

// switchView changes the browse surface, discarding in-flight results for
// the old one.
func (m Model) switchView(view View) (tea.Model, tea.Cmd) {
	if view == m.view {
		return m, nil
	}
	m.view = view
	m.catIdx = -1
	cmd := m.resetAndLoad()
	return m, cmd
}

// cycleCategory steps through "all" plus each category of the current view.
func (m Model) cycleCategory() (tea.Model, tea.Cmd) {
	cats := m.categories[m.view]
	if len(cats) == 0 {
		return m, nil
	}
	m.catIdx++
	if m.catIdx >= len(cats) {
		m.catIdx = -1
	}
	cmd := m.resetAndLoad()
	return m, cmd
}

// cycleProfile switches to the next configured profile. Window and pager
// state reset; cache entries for the old profile are untouched.
func (m Model) cycleProfile() (tea.Model, tea.Cmd) {
	if len(m.cfg.Profiles) < 2 {
		return m, nil
	}
	idx := 0
	for i, p := range m.cfg.Profiles {
		if p.ID == m.profile.ID {
			idx = i
			break
		}
	}
	m.profile = m.cfg.Profiles[(idx+1)%len(m.cfg.Profiles)]
	m.cfg.CurrentProfile = m.profile.ID
	m.categories = make(map[View][]domain.Category)
	m.catIdx = -1
	m.status = "profile: " + m.profile.Name
	loadCmd := m.resetAndLoadCmdless()
	if m.view == ViewFavorites {
		return m, loadCmd
	}
	return m, tea.Batch(loadCmd, m.loadCategories(m.view, m.gen))
}

func (m *Model) resetAndLoadCmdless() tea.Cmd {
	m.gen++
	m.loading = true
	m.err = nil
	m.searching = false
	m.searchActive = false
	m.searchInput.SetValue("")
	m.src.all = nil
	m.pager.Reset()
	m.list.Reset()
	m.list.SetTitle(m.viewTitle())
	if m.view == ViewFavorites {
		// Bookmarks live in local config; no fetch, no spinner.
		m.loading = false
		m.list.SetLoading(false)
		m.setEntries(m.favoriteEntries())
		return nil
	}
	m.list.SetLoading(true)
	return m.loadEntries(m.view, m.gen)
}

func (m *Model) resetAndLoad() tea.Cmd {
	cmd := m.resetAndLoadCmdless()
	if m.view == ViewFavorites {
		return cmd
	}
	if _, ok := m.categories[m.view]; !ok {
		return tea.Batch(cmd, m.loadCategories(m.view, m.gen))
	}
	return cmd
}

// reload refetches the current view without resetting category selection.
func (m *Model) reload() tea.Cmd {
	return m.resetAndLoad()
}

func (m Model) selectedCategoryID() string {
	cats := m.categories[m.view]
	if m.catIdx < 0 || m.catIdx >= len(cats) {
		return ""
	}
	return cats[m.catIdx].ID
}

func (m Model) viewTitle() string {
	title := viewTitles[m.view]
	cats := m.categories[m.view]
	if m.catIdx >= 0 && m.catIdx < len(cats) {
		title += " · " + cats[m.catIdx].Name
	}
	return title
}

func (m Model) View() string {
	if m.err != nil {
		return m.errorView()
	}
	if m.view == ViewSeriesDetail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(m.tabsView())
	b.WriteString("\n")
	b.WriteString(m.list.View())
	if m.searching {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) tabsView() string {
	var tabs []string
	for v := ViewLive; v < browseViews; v++ {
		if v == m.view {
			tabs = append(tabs, styles.ActiveTabStyle.Render(viewTitles[v]))
		} else {
			tabs = append(tabs, styles.TabStyle.Render(viewTitles[v]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) statusView() string {
	left := styles.StatusBarStyle.Render(" " + m.profile.Name + " ")
	if m.status != "" {
		left += "  " + styles.SubtitleStyle.Render(m.status)
	}
	if t := m.svc.LastUpdateTime(); !t.IsZero() {
		left += styles.DimStyle.Render("  updated " + t.Format("15:04"))
	}
	help := styles.DimStyle.Render("tab views · / filter · s search · f favorite · c category · p profile · R refresh · q quit")
	return left + "\n" + help
}

func (m Model) errorView() string {
	var b strings.Builder
	b.WriteString(styles.ErrorStyle.Render("Error"))
	if m.errCtx != "" {
		b.WriteString(styles.ErrorStyle.Render(" " + m.errCtx))
	}
	b.WriteString("\n\n")
	b.WriteString(m.err.Error())
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("r retry · esc dismiss"))
	return b.String()
}

func (m Model) detailView() string {
	if m.info == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.info.Series.Name))
	b.WriteString("\n")
	if m.info.Series.Plot != "" {
		b.WriteString(styles.SubtitleStyle.Render(truncateLine(m.info.Series.Plot, m.width)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.episodeCursor >= visible {
		start = m.episodeCursor - visible + 1
	}
	end := start + visible
	if end > len(m.info.Episodes) {
		end = len(m.info.Episodes)
	}

	for i := start; i < end; i++ {
		ep := m.info.Episodes[i]
		line := fmt.Sprintf("S%02dE%02d  %s", ep.SeasonNumber, ep.EpisodeNumber, ep.Title)
		if i == m.episodeCursor {
			b.WriteString(styles.SelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("enter play · esc back"))
	return b.String()
}

func truncateLine(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
