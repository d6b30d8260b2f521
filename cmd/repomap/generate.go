package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repomap/internal/config"
)

var (
	generateMapTokens    int
	generateTokenizer    string
	generateOutput       string
	generateForceRefresh bool
	generateChatFiles    []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the repository map",
	Long: `Generate a ranked, token-budgeted map of the repository.

Files passed via --chat-files are treated as already visible: they bias
ranking toward related code but never appear in the map themselves.

Examples:
  repomap generate --dir .
  repomap generate --map-tokens 2048 --chat-files internal/engine/engine.go
  repomap generate --tokenizer cl100k_base --output map.txt
  repomap generate --force-refresh`,
	Args: cobra.NoArgs,
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateMapTokens, "map-tokens", 0,
		"Target maximum number of tokens for the map (0 uses config)")
	generateCmd.Flags().StringVar(&generateTokenizer, "tokenizer", "",
		"Tokenizer for budget counting: approx or a tiktoken encoding name")
	generateCmd.Flags().StringVar(&generateOutput, "output", "",
		"Write the map to a file instead of stdout")
	generateCmd.Flags().BoolVar(&generateForceRefresh, "force-refresh", false,
		"Regenerate all tags, ignoring cached mtimes")
	generateCmd.Flags().StringSliceVar(&generateChatFiles, "chat-files", nil,
		"Files considered already in context (relative to --dir)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	eng, logger := buildEngine(func(cfg *config.Config) {
		if generateMapTokens > 0 {
			cfg.Map.MaxTokens = generateMapTokens
		}
		if generateTokenizer != "" {
			cfg.Map.Tokenizer = generateTokenizer
		}
	})
	defer eng.Close()

	content, err := eng.GenerateMap(context.Background(), generateChatFiles, nil, generateForceRefresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating map: %v\n", err)
		os.Exit(1)
	}

	if content == "" {
		logger.Info("No map content generated", nil)
		return
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing map: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Repository map written", map[string]interface{}{
			"path": generateOutput,
		})
		return
	}

	fmt.Print(content)
}
