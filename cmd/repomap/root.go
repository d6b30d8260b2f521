package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repomap/internal/config"
	"repomap/internal/engine"
	"repomap/internal/logging"
	"repomap/internal/version"
)

var (
	dirFlag     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "repomap",
	Short: "Generate a ranked map of a code repository",
	Long: `repomap extracts symbol definitions and references across a repository,
ranks files and definitions by relevance with personalized PageRank, and
renders the most relevant code snippets into a digest that fits a token
budget. The digest goes to stdout; logs go to stderr.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", ".",
		"Root directory of the repository to map")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false,
		"Enable verbose logging")
}

// newLogger builds the CLI logger from config, with --verbose forcing
// debug level.
func newLogger(cfg *config.Config) *logging.Logger {
	level := logging.LogLevel(cfg.Logging.Level)
	if verboseFlag {
		level = logging.DebugLevel
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  level,
	})
}

// buildEngine loads config for --dir, applies flag overrides, and
// constructs the engine. Setup failures exit non-zero.
func buildEngine(override func(*config.Config)) (*engine.Engine, *logging.Logger) {
	cfg, err := config.LoadConfig(dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	eng, err := engine.New(dirFlag, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return eng, logger
}
