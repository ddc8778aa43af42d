// Package feed builds headline feeds from RSS and Atom sources so the
// proxy can run without a provider key.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matheuskafuri/newswave/internal/gateway"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxDescription = 300
	maxConcurrent  = 4
)

// Fetcher fetches one feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]news.Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	p := gofeed.NewParser()
	p.UserAgent = "newswave"
	if client != nil {
		p.Client = client
	}
	return &RSSFetcher{parser: p}
}

func (f *RSSFetcher) Fetch(ctx context.Context, url string) ([]news.Article, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	sourceName := strings.TrimSpace(feed.Title)
	if sourceName == "" {
		sourceName = url
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := news.Article{
			Source:      news.Source{Name: sourceName},
			Title:       strings.TrimSpace(stripHTML(item.Title)),
			URL:         item.Link,
			Description: truncate(stripHTML(item.Description), maxDescription),
			Content:     stripHTML(item.Content),
		}
		if item.Author != nil {
			a.Author = item.Author.Name
		} else if len(item.Authors) > 0 && item.Authors[0] != nil {
			a.Author = item.Authors[0].Name
		}
		if item.Image != nil {
			a.URLToImage = item.Image.URL
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			a.PublishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}
		if a.Description == "" && a.Content != "" {
			a.Description = truncate(a.Content, maxDescription)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

type FetchResult struct {
	Articles []news.Article
	Errors   []error
}

// FetchAll fetches every url concurrently. Failed feeds are reported in
// Errors and do not abort the others.
func FetchAll(ctx context.Context, fetcher Fetcher, urls []string) FetchResult {
	var (
		mu      sync.Mutex
		result  FetchResult
		g, gctx = errgroup.WithContext(ctx)
		perFeed = make([][]news.Article, len(urls))
	)
	g.SetLimit(maxConcurrent)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			articles, err := fetcher.Fetch(gctx, u)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, err)
				mu.Unlock()
				return nil
			}
			perFeed[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	for _, articles := range perFeed {
		result.Articles = append(result.Articles, articles...)
	}
	return result
}

// Provider serves category feeds in the provider's JSON shape.
type Provider struct {
	feeds   map[news.Category][]string
	fetcher Fetcher
	log     *zap.Logger
}

func NewProvider(feeds map[news.Category][]string, fetcher Fetcher, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{feeds: feeds, fetcher: fetcher, log: log}
}

// Relay fetches the feeds configured for category and encodes them as a
// feed response. If every feed fails the response carries status "error".
func (p *Provider) Relay(ctx context.Context, category news.Category) (gateway.Relay, error) {
	urls := p.feeds[category]
	result := FetchAll(ctx, p.fetcher, urls)

	for _, err := range result.Errors {
		p.log.Warn("feed failed", zap.String("category", category.String()), zap.Error(err))
	}

	if len(urls) > 0 && len(result.Errors) == len(urls) {
		if ctx.Err() != nil {
			return gateway.Relay{}, &gateway.Error{Kind: gateway.KindTransport, Err: ctx.Err()}
		}
		return encode(http.StatusBadGateway, news.Response{
			Status:  news.StatusError,
			Code:    "feedsUnavailable",
			Message: fmt.Sprintf("all %d feeds for %s failed: %v", len(urls), category, errors.Join(result.Errors...)),
		})
	}

	articles := news.WorkingSet(result.Articles)
	sortNewestFirst(articles)

	return encode(http.StatusOK, news.Response{
		Status:       news.StatusOK,
		TotalResults: len(articles),
		Articles:     articles,
	})
}

func encode(status int, resp news.Response) (gateway.Relay, error) {
	if resp.Articles == nil {
		resp.Articles = []news.Article{}
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return gateway.Relay{}, fmt.Errorf("encoding feed: %w", err)
	}
	return gateway.Relay{Status: status, ContentType: "application/json; charset=utf-8", Body: body}, nil
}

func sortNewestFirst(articles []news.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, _ := articles[i].Published()
		tj, _ := articles[j].Published()
		return ti.After(tj)
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
