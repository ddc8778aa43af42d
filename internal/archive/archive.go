// Package archive keeps an opt-in local history of the headlines the
// reader has displayed. It is never consulted when fetching.
package archive

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matheuskafuri/newswave/internal/news"
	_ "modernc.org/sqlite"
)

const defaultLimit = 500

type Archive struct {
	db *sql.DB
}

func Open(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}
	db.SetMaxOpenConns(1)

	a := &Archive{db: db}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS headlines (
			id          TEXT PRIMARY KEY,
			category    TEXT NOT NULL,
			source      TEXT NOT NULL DEFAULT '',
			author      TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			published   INTEGER NOT NULL,
			seen_at     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_headlines_published ON headlines(published DESC);
		CREATE INDEX IF NOT EXISTS idx_headlines_category ON headlines(category);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// EntryID derives a stable id from the article URL, or from source and
// title when the provider sent no URL.
func EntryID(art news.Article) string {
	key := art.URL
	if key == "" {
		key = art.Source.Name + "\x00" + art.Title
	}
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h[:16])
}

// Record upserts a working set seen under category at seenAt.
func (a *Archive) Record(category news.Category, articles []news.Article, seenAt time.Time) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO headlines (id, category, source, author, title, description, url, image_url, published, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			seen_at = excluded.seen_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, art := range articles {
		if !news.Valid(art) {
			continue
		}
		published, ok := art.Published()
		if !ok {
			published = seenAt
		}
		_, err := stmt.Exec(EntryID(art), string(category), art.Source.Name, art.Author, art.Title,
			art.Description, art.URL, art.URLToImage, published.Unix(), seenAt.Unix())
		if err != nil {
			return fmt.Errorf("archiving %q: %w", art.Title, err)
		}
	}

	return tx.Commit()
}

func (a *Archive) Entries(opts QueryOpts) ([]Entry, error) {
	var (
		where []string
		args  []interface{}
	)

	if !opts.Since.IsZero() {
		where = append(where, "published >= ?")
		args = append(args, opts.Since.Unix())
	}

	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(opts.Category))
	}

	if opts.Search != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term)
	}

	query := "SELECT id, category, source, author, title, description, url, image_url, published, seen_at FROM headlines"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			category          string
			published, seenAt int64
		)
		if err := rows.Scan(&e.ID, &category, &e.Article.Source.Name, &e.Article.Author, &e.Article.Title,
			&e.Article.Description, &e.Article.URL, &e.Article.URLToImage, &published, &seenAt); err != nil {
			return nil, fmt.Errorf("scanning headline: %w", err)
		}
		e.Category = news.Category(category)
		e.Published = time.Unix(published, 0)
		e.SeenAt = time.Unix(seenAt, 0)
		e.Article.PublishedAt = e.Published.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes headlines last seen longer than olderThan ago.
func (a *Archive) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := a.db.Exec("DELETE FROM headlines WHERE seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting headlines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := a.db.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats returns the number of archived headlines and the size of the
// database file at dbPath.
func (a *Archive) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM headlines").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting headlines: %w", err)
	}
	var size int64
	for _, p := range []string{dbPath, dbPath + "-wal"} {
		if info, err := os.Stat(p); err == nil {
			size += info.Size()
		}
	}
	return count, size, nil
}
