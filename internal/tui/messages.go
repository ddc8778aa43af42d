package tui

import (
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/matheuskafuri/newswave/internal/reader"
)

// headlinesMsg carries a fetch outcome back to the update loop together
// with the ticket it was issued for.
type headlinesMsg struct {
	ticket   reader.Ticket
	articles []news.Article
	err      error
}

type archivedMsg struct {
	count int
	err   error
}

type browserErrMsg struct {
	err error
}
