// Package reader holds the view state of the news reader: the fetched
// working set, the active category and search term, the selected article
// and the render mode derived from them. It does no I/O; callers run the
// fetch for the Ticket returned by SelectCategory and hand the outcome back
// through Resolve.
package reader

import (
	"strings"

	"github.com/matheuskafuri/newswave/internal/news"
)

// Mode is what the view currently renders.
type Mode int

const (
	ModeLoading Mode = iota
	ModeError
	ModeList
	ModeDetail
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeError:
		return "error"
	case ModeList:
		return "list"
	case ModeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Ticket identifies one fetch. Only the ticket from the latest
// SelectCategory call can commit.
type Ticket struct {
	Seq      uint64
	Category news.Category
}

type State struct {
	category   news.Category
	searchTerm string
	articles   []news.Article

	// filtered holds indexes into articles.
	filtered []int
	selected int

	loading bool
	err     error
	seq     uint64
}

// New returns an idle state on category. No fetch is pending until
// SelectCategory is called.
func New(category news.Category) *State {
	if category == "" {
		category = news.DefaultCategory
	}
	return &State{category: category, selected: -1}
}

// SelectCategory starts a new fetch cycle. Search term, selection, articles
// and error are cleared, and any earlier ticket becomes stale.
func (s *State) SelectCategory(category news.Category) Ticket {
	s.seq++
	s.category = category
	s.searchTerm = ""
	s.articles = nil
	s.selected = -1
	s.err = nil
	s.loading = true
	s.refilter()
	return Ticket{Seq: s.seq, Category: category}
}

// Resolve commits the outcome of the fetch identified by t. It returns
// false, leaving the state untouched, when t has been superseded.
func (s *State) Resolve(t Ticket, articles []news.Article, err error) bool {
	if t.Seq != s.seq || !s.loading {
		return false
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.articles = nil
	} else {
		s.articles = news.WorkingSet(articles)
	}
	s.selected = -1
	s.refilter()
	return true
}

func (s *State) SetSearchTerm(term string) {
	s.searchTerm = term
	s.refilter()
}

// SelectArticle opens the i-th entry of the filtered list. It only works in
// list mode.
func (s *State) SelectArticle(i int) bool {
	if s.Mode() != ModeList || i < 0 || i >= len(s.filtered) {
		return false
	}
	s.selected = s.filtered[i]
	return true
}

// GoBack leaves detail mode. The filtered list is left as it was.
func (s *State) GoBack() {
	s.selected = -1
}

func (s *State) refilter() {
	s.filtered = filterIndexes(s.articles, s.searchTerm)
}

func (s *State) Mode() Mode {
	switch {
	case s.loading:
		return ModeLoading
	case s.err != nil:
		return ModeError
	case s.selected >= 0:
		return ModeDetail
	default:
		return ModeList
	}
}

func (s *State) Category() news.Category { return s.category }
func (s *State) SearchTerm() string      { return s.searchTerm }
func (s *State) Loading() bool           { return s.loading }
func (s *State) Err() error              { return s.err }

// Seq is the sequence number of the current ticket.
func (s *State) Seq() uint64 { return s.seq }

// Current reports whether t is still the ticket that may commit.
func (s *State) Current(t Ticket) bool { return t.Seq == s.seq && s.loading }

// Articles returns the committed working set.
func (s *State) Articles() []news.Article {
	return append([]news.Article(nil), s.articles...)
}

// Filtered returns the working set narrowed by the search term.
func (s *State) Filtered() []news.Article {
	out := make([]news.Article, len(s.filtered))
	for i, idx := range s.filtered {
		out[i] = s.articles[idx]
	}
	return out
}

func (s *State) FilteredLen() int { return len(s.filtered) }

// Selected returns the article shown in detail mode.
func (s *State) Selected() (news.Article, bool) {
	if s.selected < 0 || s.selected >= len(s.articles) {
		return news.Article{}, false
	}
	return s.articles[s.selected], true
}

// Filter keeps the articles whose title contains term, ignoring case. An
// empty term keeps everything.
func Filter(articles []news.Article, term string) []news.Article {
	idx := filterIndexes(articles, term)
	out := make([]news.Article, len(idx))
	for i, j := range idx {
		out[i] = articles[j]
	}
	return out
}

func filterIndexes(articles []news.Article, term string) []int {
	needle := strings.ToLower(term)
	out := make([]int, 0, len(articles))
	for i, a := range articles {
		if needle == "" || strings.Contains(strings.ToLower(a.Title), needle) {
			out = append(out, i)
		}
	}
	return out
}
