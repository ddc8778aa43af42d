package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/matheuskafuri/newswave/internal/reader"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    []news.Category
	articles map[news.Category][]news.Article
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, c news.Category) ([]news.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[c], nil
}

type fakeRecorder struct {
	category news.Category
	articles []news.Article
	err      error
}

func (r *fakeRecorder) Record(c news.Category, articles []news.Article, _ time.Time) error {
	r.category = c
	r.articles = articles
	return r.err
}

func headlines(titles ...string) []news.Article {
	out := make([]news.Article, len(titles))
	for i, t := range titles {
		out[i] = news.Article{
			Title:  t,
			URL:    "https://example.com/" + strings.ReplaceAll(t, " ", "-"),
			Source: news.Source{Name: "Wire"},
		}
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(runes(string(r)))
	}
}

// fetchResult runs the fetch half of a selectCategory batch.
func fetchResult(t *testing.T, cmd tea.Cmd) headlinesMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch command")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(headlinesMsg); ok {
			return msg
		}
	}
	t.Fatal("batch produced no headlinesMsg")
	return headlinesMsg{}
}

func newTestApp(f *fakeFetcher) *App {
	a := NewApp(RunOpts{Fetcher: f, Category: news.General})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return a
}

func loadedApp(t *testing.T, titles ...string) (*App, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{articles: map[news.Category][]news.Article{
		news.General: headlines(titles...),
	}}
	a := newTestApp(f)
	a.Update(fetchResult(t, a.Init()))
	if a.state.Mode() != reader.ModeList {
		t.Fatalf("mode = %s, want list", a.state.Mode())
	}
	return a, f
}

func TestInitFetchesStartCategory(t *testing.T) {
	a, f := loadedApp(t, "Market Rally", "New Phone Launch")

	if len(f.calls) != 1 || f.calls[0] != news.General {
		t.Fatalf("fetch calls = %v, want [general]", f.calls)
	}
	if got := a.state.FilteredLen(); got != 2 {
		t.Errorf("FilteredLen = %d, want 2", got)
	}
	view := a.View()
	for _, want := range []string{"Market Rally", "New Phone Launch", "2 articles"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLoadingView(t *testing.T) {
	a := newTestApp(&fakeFetcher{})
	a.Init()
	if !strings.Contains(a.View(), "Loading general headlines") {
		t.Errorf("loading view missing indicator:\n%s", a.View())
	}
}

func TestStaleHeadlinesDiscarded(t *testing.T) {
	f := &fakeFetcher{articles: map[news.Category][]news.Article{
		news.General:    headlines("Old News"),
		news.Technology: headlines("Chip Launch"),
	}}
	a := newTestApp(f)
	first := fetchResult(t, a.Init())

	_, cmd := a.Update(runes("3"))
	second := fetchResult(t, cmd)

	a.Update(first)
	if !a.state.Loading() {
		t.Fatal("stale result ended loading")
	}
	if a.state.Category() != news.Technology {
		t.Errorf("category = %s, want technology", a.state.Category())
	}

	a.Update(second)
	got := a.state.Filtered()
	if len(got) != 1 || got[0].Title != "Chip Launch" {
		t.Errorf("articles = %v, want [Chip Launch]", got)
	}
}

func TestSelectCategoryCancelsPreviousFetch(t *testing.T) {
	a := newTestApp(&fakeFetcher{})
	a.Init()
	prev := a.cancel
	if prev == nil {
		t.Fatal("no cancel func after Init")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Update(runes("2"))
	if ctx.Err() == nil {
		t.Error("previous fetch context not cancelled")
	}
}

func TestFetchErrorView(t *testing.T) {
	f := &fakeFetcher{err: errors.New("HTTP 500: upstream down")}
	a := newTestApp(f)
	a.Update(fetchResult(t, a.Init()))

	if a.state.Mode() != reader.ModeError {
		t.Fatalf("mode = %s, want error", a.state.Mode())
	}
	if !strings.Contains(a.View(), "Error: HTTP 500: upstream down") {
		t.Errorf("error view missing message:\n%s", a.View())
	}

	// Retry through refresh
	f.err = nil
	f.articles = map[news.Category][]news.Article{news.General: headlines("Back Online")}
	_, cmd := a.Update(runes("r"))
	a.Update(fetchResult(t, cmd))
	if a.state.Mode() != reader.ModeList {
		t.Errorf("mode after refresh = %s, want list", a.state.Mode())
	}
}

func TestSearchFiltersLive(t *testing.T) {
	a, _ := loadedApp(t, "Market Rally", "New Phone Launch")

	a.Update(runes("/"))
	if !a.searching {
		t.Fatal("search not activated")
	}
	typeText(a, "phone")
	if got := a.state.FilteredLen(); got != 1 {
		t.Errorf("FilteredLen = %d, want 1", got)
	}

	// Digits are search text while typing
	typeText(a, "3")
	if a.state.Category() != news.General {
		t.Errorf("typing a digit switched category to %s", a.state.Category())
	}
	if got := a.state.SearchTerm(); got != "phone3" {
		t.Errorf("SearchTerm = %q, want %q", got, "phone3")
	}
	if got := a.state.FilteredLen(); got != 0 {
		t.Errorf("FilteredLen = %d, want 0", got)
	}
	if !strings.Contains(a.View(), emptyListText) {
		t.Error("empty result should show the empty list text")
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.searching || a.state.SearchTerm() != "" {
		t.Errorf("esc should clear search, got searching=%v term=%q", a.searching, a.state.SearchTerm())
	}
	if got := a.state.FilteredLen(); got != 2 {
		t.Errorf("FilteredLen after clear = %d, want 2", got)
	}
}

func TestCategorySwitchResetsSearch(t *testing.T) {
	a, f := loadedApp(t, "Market Rally", "New Phone Launch")

	a.Update(runes("/"))
	typeText(a, "rally")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.searching {
		t.Fatal("enter should leave search input")
	}
	if a.state.SearchTerm() != "rally" {
		t.Fatalf("SearchTerm = %q, want rally", a.state.SearchTerm())
	}

	_, cmd := a.Update(runes("l"))
	if a.state.Category() != news.Business {
		t.Errorf("category = %s, want business", a.state.Category())
	}
	if a.state.SearchTerm() != "" {
		t.Errorf("SearchTerm = %q, want empty", a.state.SearchTerm())
	}
	fetchResult(t, cmd)
	if last := f.calls[len(f.calls)-1]; last != news.Business {
		t.Errorf("last fetch = %s, want business", last)
	}
}

func TestSelectAndGoBack(t *testing.T) {
	a, _ := loadedApp(t, "Market Rally", "New Phone Launch")

	a.Update(runes("j"))
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if a.state.Mode() != reader.ModeDetail {
		t.Fatalf("mode = %s, want detail", a.state.Mode())
	}
	sel, ok := a.state.Selected()
	if !ok || sel.Title != "New Phone Launch" {
		t.Fatalf("selected = %q, want New Phone Launch", sel.Title)
	}
	if !strings.Contains(a.View(), "Read the full story on Wire") {
		t.Errorf("detail view missing link line:\n%s", a.View())
	}

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.state.Mode() != reader.ModeList {
		t.Fatalf("mode = %s, want list", a.state.Mode())
	}
	if a.cursor != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor)
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	a, _ := loadedApp(t, "One", "Two")
	for i := 0; i < 5; i++ {
		a.Update(runes("j"))
	}
	if a.cursor != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor)
	}
	for i := 0; i < 5; i++ {
		a.Update(runes("k"))
	}
	if a.cursor != 0 {
		t.Errorf("cursor = %d, want 0", a.cursor)
	}
}

func TestArchiveAfterLoad(t *testing.T) {
	f := &fakeFetcher{articles: map[news.Category][]news.Article{
		news.General: headlines("Kept", news.RemovedTitle),
	}}
	rec := &fakeRecorder{}
	a := NewApp(RunOpts{Fetcher: f, Category: news.General, Archive: rec})

	_, cmd := a.Update(fetchResult(t, a.Init()))
	if cmd == nil {
		t.Fatal("expected archive command")
	}
	msg, ok := cmd().(archivedMsg)
	if !ok {
		t.Fatal("archive command returned wrong message")
	}
	if msg.count != 1 || len(rec.articles) != 1 || rec.category != news.General {
		t.Errorf("recorded %d articles for %s, want 1 for general", len(rec.articles), rec.category)
	}

	rec.err = errors.New("disk full")
	a.Update(archivedMsg{err: rec.err})
	if !strings.Contains(a.notice, "disk full") {
		t.Errorf("notice = %q, want archive failure", a.notice)
	}
}

func TestOpenBrowserFailureShowsNotice(t *testing.T) {
	a, _ := loadedApp(t, "Market Rally")
	var opened string
	a.open = func(u string) error {
		opened = u
		return errors.New("no browser")
	}

	_, cmd := a.Update(runes("o"))
	if cmd == nil {
		t.Fatal("expected open command")
	}
	a.Update(cmd())
	if opened != "https://example.com/Market-Rally" {
		t.Errorf("opened %q", opened)
	}
	if a.notice != "no browser" {
		t.Errorf("notice = %q, want %q", a.notice, "no browser")
	}

	// Cleared by the next key
	a.Update(runes("k"))
	if a.notice != "" {
		t.Errorf("notice not cleared: %q", a.notice)
	}
}

func TestQuit(t *testing.T) {
	a, _ := loadedApp(t, "Market Rally")
	_, cmd := a.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
