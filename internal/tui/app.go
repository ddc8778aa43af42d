package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/newswave/internal/browser"
	"github.com/matheuskafuri/newswave/internal/gateway"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/matheuskafuri/newswave/internal/reader"
	"go.uber.org/zap"
)

// Recorder archives committed working sets.
type Recorder interface {
	Record(category news.Category, articles []news.Article, seenAt time.Time) error
}

type App struct {
	state   *reader.State
	fetcher gateway.Fetcher
	archive Recorder
	log     *zap.Logger
	open    func(string) error

	// cancel aborts the in-flight fetch, if any.
	cancel context.CancelFunc

	cursor       int
	detailScroll int
	searching    bool
	notice       string

	width  int
	height int

	keys        keyMap
	searchInput textinput.Model
	spinner     spinner.Model
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Fetcher  gateway.Fetcher
	Category news.Category
	// Archive is nil unless archiving is enabled.
	Archive Recorder
	Logger  *zap.Logger
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search articles..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &App{
		state:       reader.New(opts.Category),
		fetcher:     opts.Fetcher,
		archive:     opts.Archive,
		log:         log,
		open:        browser.Open,
		keys:        defaultKeyMap(),
		searchInput: ti,
		spinner:     sp,
	}
}

func (a *App) Init() tea.Cmd {
	return a.selectCategory(a.state.Category())
}

// selectCategory resets the view, cancels the previous fetch and starts a
// new one.
func (a *App) selectCategory(c news.Category) tea.Cmd {
	if a.cancel != nil {
		a.cancel()
	}
	ticket := a.state.SelectCategory(c)

	a.cursor = 0
	a.detailScroll = 0
	a.searching = false
	a.searchInput.SetValue("")
	a.searchInput.Blur()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.log.Debug("fetching headlines", zap.String("category", c.String()), zap.Uint64("seq", ticket.Seq))
	return tea.Batch(a.fetchCmd(ctx, ticket), a.spinner.Tick)
}

// fetchCmd captures the ticket so the result can be matched on return.
func (a *App) fetchCmd(ctx context.Context, ticket reader.Ticket) tea.Cmd {
	f := a.fetcher
	return func() tea.Msg {
		articles, err := f.Fetch(ctx, ticket.Category)
		return headlinesMsg{ticket: ticket, articles: articles, err: err}
	}
}

func (a *App) archiveCmd(c news.Category, articles []news.Article) tea.Cmd {
	rec := a.archive
	return func() tea.Msg {
		err := rec.Record(c, articles, time.Now())
		return archivedMsg{count: len(articles), err: err}
	}
}

func (a *App) openBrowserCmd(url string) tea.Cmd {
	open := a.open
	return func() tea.Msg {
		if err := open(url); err != nil {
			return browserErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Notices last until the next keypress
		a.notice = ""
		return a.handleKey(msg)

	case headlinesMsg:
		if !a.state.Resolve(msg.ticket, msg.articles, msg.err) {
			a.log.Debug("discarding stale headlines",
				zap.String("category", msg.ticket.Category.String()),
				zap.Uint64("seq", msg.ticket.Seq),
				zap.Uint64("current", a.state.Seq()),
			)
			return a, nil
		}
		if a.cancel != nil {
			a.cancel()
			a.cancel = nil
		}
		a.cursor = 0
		if msg.err != nil {
			a.log.Warn("fetch failed", zap.String("category", msg.ticket.Category.String()), zap.Error(msg.err))
			return a, nil
		}
		if a.archive != nil {
			return a, a.archiveCmd(msg.ticket.Category, a.state.Articles())
		}
		return a, nil

	case archivedMsg:
		if msg.err != nil {
			a.log.Warn("archiving failed", zap.Error(msg.err))
			a.notice = "archive: " + msg.err.Error()
		}
		return a, nil

	case browserErrMsg:
		a.notice = msg.err.Error()
		return a, nil

	case spinner.TickMsg:
		if a.state.Loading() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.searching {
		return a.handleSearchKey(msg)
	}

	// Number keys jump straight to a category
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(news.Categories) {
		return a, a.selectCategory(news.Categories[s[0]-'1'])
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.NextCategory):
		return a, a.selectCategory(nextCategory(a.state.Category(), 1))
	case key.Matches(msg, a.keys.PrevCategory):
		return a, a.selectCategory(nextCategory(a.state.Category(), -1))
	case key.Matches(msg, a.keys.Refresh):
		return a, a.selectCategory(a.state.Category())
	}

	switch a.state.Mode() {
	case reader.ModeList:
		return a.handleListKey(msg)
	case reader.ModeDetail:
		return a.handleDetailKey(msg)
	}
	return a, nil
}

func (a *App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Down):
		if a.cursor < a.state.FilteredLen()-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Select):
		if a.state.SelectArticle(a.cursor) {
			a.detailScroll = 0
		}
	case key.Matches(msg, a.keys.OpenBrowser):
		if filtered := a.state.Filtered(); a.cursor < len(filtered) {
			return a, a.openBrowserCmd(filtered[a.cursor].URL)
		}
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.searchInput.SetValue(a.state.SearchTerm())
		a.searchInput.CursorEnd()
		return a, a.searchInput.Focus()
	}
	return a, nil
}

func (a *App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.state.GoBack()
		a.detailScroll = 0
	case key.Matches(msg, a.keys.Down):
		a.detailScroll++
	case key.Matches(msg, a.keys.Up):
		if a.detailScroll > 0 {
			a.detailScroll--
		}
	case key.Matches(msg, a.keys.OpenBrowser):
		if art, ok := a.state.Selected(); ok {
			return a, a.openBrowserCmd(art.URL)
		}
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searching = false
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.applySearch("")
		return a, nil
	case "enter":
		a.searching = false
		a.searchInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	// Only refilter on actual value changes, not cursor moves etc.
	if v := a.searchInput.Value(); v != a.state.SearchTerm() {
		a.applySearch(v)
	}
	return a, cmd
}

func (a *App) applySearch(term string) {
	a.state.SetSearchTerm(term)
	if n := a.state.FilteredLen(); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  newswave")
	}

	// Layout calculations
	headerHeight := 1
	tabsHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - tabsHeight - statusHeight - 2 // borders
	if contentHeight < 3 {
		contentHeight = 3
	}
	innerWidth := a.width - 4 // border + padding

	// Header
	headerLeft := headerStyle.Render("NewsWave")
	headerRight := headerDateStyle.Render(time.Now().Format("Mon, Jan 2"))
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Search bar replaces the tabs while searching
	tabs := renderTabs(a.state.Category(), a.width)
	if a.searching {
		tabs = a.searchInput.View()
	}

	var body string
	switch a.state.Mode() {
	case reader.ModeLoading:
		body = centered(a.spinner.View()+" Loading "+a.state.Category().String()+" headlines...", innerWidth, contentHeight)
	case reader.ModeError:
		body = centered(errorStyle.Render(wrapText("Error: "+a.state.Err().Error(), innerWidth-4)), innerWidth, contentHeight)
	case reader.ModeDetail:
		art, _ := a.state.Selected()
		body = renderDetail(art, innerWidth, contentHeight, a.detailScroll)
	default:
		body = renderList(a.state.Filtered(), a.cursor, contentHeight, innerWidth)
	}
	pane := paneStyle.Width(a.width-2).Height(contentHeight).Padding(0, 1).Render(body)

	status := renderStatusBar(statusInfo{
		mode:      a.state.Mode(),
		category:  a.state.Category(),
		shown:     a.state.FilteredLen(),
		total:     len(a.state.Articles()),
		search:    a.state.SearchTerm(),
		searching: a.searching,
		notice:    a.notice,
	}, a.keys, a.width)

	return strings.Join([]string{header, tabs, pane, status}, "\n")
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	if app.cancel != nil {
		app.cancel()
	}
	return err
}
