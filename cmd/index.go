package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the documentation catalog from the docs tree",
	Long: `Walk the configured Reflex docs tree, extract component and doc section
records, and replace the catalog in one pass. The previous catalog stays
visible until the rebuild commits.`,
	Example: `  rxdocs index
  RXDOCS_DOCS_ROOT=~/src/reflex-web/docs rxdocs index
  rxdocs index --debug`,
	Run: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	result, err := client.Rebuild(context.Background(), func(msg string) {
		fmt.Printf("  %s\n", msg)
	})
	if err != nil {
		log.Fatalf("rebuild failed: %v", err)
	}
	if result.Error != "" {
		log.Fatalf("rebuild failed: %s", result.Error)
	}

	fmt.Printf("indexed %d components, %d doc sections", result.Components, result.DocSections)
	if result.Skipped > 0 {
		fmt.Printf(" (%d files skipped)", result.Skipped)
	}
	fmt.Println()
}
