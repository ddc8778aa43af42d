package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagCategory string
	flagProxy    string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "newswave",
	Short: "Terminal news reader",
	Long: `newswave shows top headlines by category in the terminal.

Headlines are fetched through the newswave proxy (see "newswave serve"),
which holds the provider API key so the reader never sees it.`,
	RunE:         runTUI,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagCategory, "category", "", "category to open with (general, business, technology, ...)")
	rootCmd.Flags().StringVar(&flagProxy, "proxy", "", "proxy endpoint to fetch headlines from")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newswave %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
