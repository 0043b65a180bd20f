package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smartreader/reader/internal/config"
	"github.com/smartreader/reader/internal/storage"
	"github.com/smartreader/reader/pkg/log"
)

var (
	cfg     *config.Config
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reader",
	Short: "Book library and translation tool",
	Long: `reader manages a local book library (EPUB, FB2, TXT, ZIP) and
translates chapters through the shared translation cache.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Optional .env for local development; absence is not an error.
		_ = godotenv.Load()

		if verbose {
			log.InitLogger(log.LevelDebug)
		}

		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(detectCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore opens the library database under the configured data dir.
func openStore() (*storage.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return storage.NewSQLiteStore(cfg.Storage.DatabasePath())
}
