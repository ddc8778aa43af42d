package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/matheuskafuri/newswave/internal/archive"
	"github.com/matheuskafuri/newswave/internal/config"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/spf13/cobra"
)

var (
	flagPruneOlderThan string
	flagHistorySince   string
	flagHistoryCat     string
	flagHistorySearch  string
	flagHistoryLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived headlines",
	Long: `List headlines the reader has shown, newest first.

Only populated when archive.enabled is true in the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := archive.QueryOpts{Search: flagHistorySearch, Limit: flagHistoryLimit}
		if flagHistorySince != "" {
			d, err := config.ParseDays(flagHistorySince)
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			opts.Since = time.Now().Add(-d)
		}
		if flagHistoryCat != "" {
			c, err := news.ParseCategory(flagHistoryCat)
			if err != nil {
				return fmt.Errorf("invalid --category value: %w", err)
			}
			opts.Category = c
		}

		db, err := archive.Open(config.ArchivePath())
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer db.Close()

		entries, err := db.Entries(opts)
		if err != nil {
			return fmt.Errorf("querying archive: %w", err)
		}
		return writeHistory(os.Stdout, entries)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old headlines from the archive",
	Long: `Delete archived headlines older than the retention period and reclaim disk space.

Uses the retention value from config (default: 30d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := archive.Open(config.ArchivePath())
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := config.ParseDays(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d headline(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.ArchivePath()
		db, err := archive.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Archive: %s\n", dbPath)
		fmt.Printf("Headlines: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")

	historyCmd.Flags().StringVar(&flagHistorySince, "since", "", "only show headlines published in the last duration (e.g., 7d, 24h)")
	historyCmd.Flags().StringVar(&flagHistoryCat, "category", "", "only show one category")
	historyCmd.Flags().StringVar(&flagHistorySearch, "search", "", "only show headlines whose title or description contains this text")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "maximum number of headlines")
}

func writeHistory(w io.Writer, entries []archive.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No archived headlines.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Published.Local().Format("2006-01-02 15:04"),
			e.Category,
			e.Article.Source.Name,
			e.Article.Title,
		)
	}
	return tw.Flush()
}

func formatDuration(d time.Duration) string {
	h := d.Hours()
	days := int(h / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(h))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
