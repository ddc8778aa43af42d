package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/matheuskafuri/newswave/internal/config"
	"github.com/matheuskafuri/newswave/internal/feed"
	"github.com/matheuskafuri/newswave/internal/gateway"
	"github.com/matheuskafuri/newswave/internal/logging"
	"github.com/matheuskafuri/newswave/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagAddr     string
	flagProvider string
	flagEnvFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the headline proxy",
	Long: `Run the HTTP proxy the reader fetches headlines from.

The proxy attaches the provider API key (server.api_key, NEWSWAVE_API_KEY or
NEWS_API_KEY, optionally from a .env file) and relays the provider response.
With --provider rss it serves headlines built from the configured feeds
instead and needs no key.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&flagProvider, "provider", "", "upstream provider: newsapi or rss")
	serveCmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file to load before reading the key")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(flagEnvFile); err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagProvider != "" {
		cfg.Server.Provider = flagProvider
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer log.Sync()

	upstream, err := newUpstream(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Addr:     cfg.Server.Addr,
		Path:     cfg.Server.Path,
		Upstream: upstream,
		Logger:   log,
	})
	return srv.Run(ctx)
}

// loadEnvFile populates the environment from a dotenv file. A missing file
// is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newUpstream(cfg *config.Config, log *zap.Logger) (server.Upstream, error) {
	switch cfg.Server.Provider {
	case config.ProviderNewsAPI, "":
		key := cfg.APIKey()
		if key == "" {
			// Requests still get the configuration error, but say so up front
			log.Warn("no API key configured; requests will fail until one is set")
		}
		return gateway.New(gateway.Options{
			Mode:     gateway.ModeDirect,
			Endpoint: cfg.Server.BaseURL,
			APIKey:   key,
			Country:  cfg.Server.Country,
			Timeout:  cfg.TimeoutDuration(),
			Logger:   log.Named("gateway"),
		}), nil
	case config.ProviderRSS:
		client := &http.Client{Timeout: cfg.TimeoutDuration()}
		return feed.NewProvider(cfg.Server.Feeds, feed.NewRSSFetcher(client), log.Named("feed")), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", cfg.Server.Provider, config.ProviderNewsAPI, config.ProviderRSS)
	}
}
