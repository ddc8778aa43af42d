package cmd

import (
	"fmt"
	"net/url"

	"github.com/matheuskafuri/newswave/internal/archive"
	"github.com/matheuskafuri/newswave/internal/config"
	"github.com/matheuskafuri/newswave/internal/gateway"
	"github.com/matheuskafuri/newswave/internal/logging"
	"github.com/matheuskafuri/newswave/internal/news"
	"github.com/matheuskafuri/newswave/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyReaderFlags(cfg, flagCategory, flagProxy); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Path: config.LogPath()})
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := tui.RunOpts{
		Fetcher:  readerClient(cfg, log),
		Category: cfg.StartCategory(),
		Logger:   log,
	}

	if cfg.Archive.Enabled {
		db, err := archive.Open(config.ArchivePath())
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer db.Close()
		opts.Archive = db

		// Keep the archive bounded without a separate prune run
		if n, err := db.Prune(cfg.RetentionDuration()); err != nil {
			log.Warn("pruning archive", zap.Error(err))
		} else if n > 0 {
			log.Info("pruned archive", zap.Int64("deleted", n))
		}
	}

	log.Info("starting reader",
		zap.String("category", opts.Category.String()),
		zap.String("proxy", cfg.ProxyURL),
		zap.Bool("archive", cfg.Archive.Enabled),
	)
	return tui.Run(opts)
}

// applyReaderFlags overlays command-line flags on the loaded config.
func applyReaderFlags(cfg *config.Config, category, proxy string) error {
	if category != "" {
		c, err := news.ParseCategory(category)
		if err != nil {
			return fmt.Errorf("invalid --category value: %w", err)
		}
		cfg.Category = c.String()
	}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --proxy value %q: must be an http(s) URL", proxy)
		}
		cfg.ProxyURL = proxy
	}
	return nil
}

// readerClient always talks to the proxy; the key never reaches the reader.
func readerClient(cfg *config.Config, log *zap.Logger) *gateway.Client {
	return gateway.New(gateway.Options{
		Mode:     gateway.ModeProxy,
		Endpoint: cfg.ProxyURL,
		Timeout:  cfg.TimeoutDuration(),
		Logger:   log.Named("gateway"),
	})
}
