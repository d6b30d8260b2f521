package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var relatedCmd = &cobra.Command{
	Use:   "related <file>...",
	Short: "List files related to the given files via shared identifiers",
	Long: `List every file that references an identifier defined in the given
files, or defines an identifier the given files reference. One path per
line, sorted, targets excluded.

Examples:
  repomap related internal/engine/engine.go
  repomap related --dir ../other-repo src/parser.py src/lexer.py`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) {
	eng, _ := buildEngine(nil)
	defer eng.Close()

	related, err := eng.RelatedFiles(context.Background(), args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding related files: %v\n", err)
		os.Exit(1)
	}

	for _, relPath := range related {
		fmt.Println(relPath)
	}
}
