package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheDumpCmd = &cobra.Command{
	Use:   "cache-dump",
	Short: "Render every tag held in the on-disk cache",
	Long: `Render all cached tags without ranking or budget fitting. Useful for
inspecting what the tag cache currently knows about the repository.

Examples:
  repomap cache-dump
  repomap cache-dump --dir ../other-repo`,
	Args: cobra.NoArgs,
	Run:  runCacheDump,
}

func init() {
	rootCmd.AddCommand(cacheDumpCmd)
}

func runCacheDump(cmd *cobra.Command, args []string) {
	eng, logger := buildEngine(nil)
	defer eng.Close()

	content, err := eng.RenderCacheDump(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering cache: %v\n", err)
		os.Exit(1)
	}

	if content == "" {
		logger.Info("Tag cache is empty", nil)
		return
	}

	fmt.Print(content)
}
