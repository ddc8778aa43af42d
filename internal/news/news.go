// Package news holds the article feed types shared by the reader, the
// gateway and the proxy.
package news

import (
	"fmt"
	"strings"
	"time"
)

// RemovedTitle is the placeholder title the provider uses for articles
// that were taken down after publication.
const RemovedTitle = "[Removed]"

// Status values of a feed response.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Source struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	URLToImage  string `json:"urlToImage,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Published parses PublishedAt. The zero time and false are returned when
// the provider sent nothing usable.
func (a Article) Published() (time.Time, bool) {
	if a.PublishedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Response is the JSON envelope returned by the provider and by the proxy.
type Response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	TotalResults int       `json:"totalResults,omitempty"`
	Articles     []Article `json:"articles"`
}

// Valid reports whether the article may appear in a working set.
func Valid(a Article) bool {
	return a.Title != "" && a.Title != RemovedTitle
}

// WorkingSet drops untitled and removed articles, preserving order.
func WorkingSet(articles []Article) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if Valid(a) {
			out = append(out, a)
		}
	}
	return out
}

type Category string

const (
	General       Category = "general"
	Business      Category = "business"
	Technology    Category = "technology"
	Entertainment Category = "entertainment"
	Health        Category = "health"
	Science       Category = "science"
	Sports        Category = "sports"
)

// Categories lists every category in display order.
var Categories = []Category{General, Business, Technology, Entertainment, Health, Science, Sports}

// DefaultCategory is selected when nothing else is configured.
const DefaultCategory = General

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", s, categoryList())
}

// Label is the capitalized form shown in tabs.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func (c Category) String() string { return string(c) }

// Index returns the position of c in Categories, or -1.
func (c Category) Index() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return -1
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
