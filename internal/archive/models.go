package archive

import (
	"time"

	"github.com/matheuskafuri/newswave/internal/news"
)

// Entry is an archived headline together with where and when it was seen.
type Entry struct {
	ID        string
	Category  news.Category
	Article   news.Article
	Published time.Time
	SeenAt    time.Time
}

type QueryOpts struct {
	Since    time.Time
	Category news.Category
	Search   string
	Limit    int
}
