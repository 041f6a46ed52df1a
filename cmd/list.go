package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List cataloged components",
	Example: `  rxdocs components
  rxdocs components --category forms
  rxdocs components --category "data display"`,
	Run: runComponents,
}

var componentsCategory string

func init() {
	componentsCmd.Flags().StringVar(&componentsCategory, "category", "", "filter by category (case-insensitive substring)")
}

func runComponents(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.ListComponents(context.Background(), componentsCategory)
	if err != nil {
		log.Fatalf("listing components failed: %v", err)
	}

	if len(resp.Components) == 0 {
		fmt.Println("no components cataloged (run `rxdocs index` first)")
		return
	}

	for _, c := range resp.Components {
		fmt.Printf("  %-28s %s\n", c.Name, c.Category)
		if c.Description != "" {
			fmt.Printf("    %s\n", c.Description)
		}
	}
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List cataloged doc sections",
	Example: `  rxdocs docs
  rxdocs docs --section getting
  rxdocs docs --section hosting`,
	Run: runDocs,
}

var docsSection string

func init() {
	docsCmd.Flags().StringVar(&docsSection, "section", "", "filter by section (case-insensitive substring)")
}

func runDocs(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.ListDocSections(context.Background(), docsSection)
	if err != nil {
		log.Fatalf("listing doc sections failed: %v", err)
	}

	if len(resp.DocSections) == 0 {
		fmt.Println("no doc sections cataloged (run `rxdocs index` first)")
		return
	}

	for _, d := range resp.DocSections {
		fmt.Printf("  %-28s %s\n", d.Name, d.Section)
		if d.Description != "" {
			fmt.Printf("    %s\n", d.Description)
		}
	}
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List distinct component categories",
	Run:   runCategories,
}

func runCategories(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Categories(context.Background())
	if err != nil {
		log.Fatalf("listing categories failed: %v", err)
	}

	for _, c := range resp.Categories {
		fmt.Printf("  %s\n", c)
	}
}

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List distinct doc sections",
	Run:   runSections,
}

func runSections(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Sections(context.Background())
	if err != nil {
		log.Fatalf("listing sections failed: %v", err)
	}

	for _, s := range resp.Sections {
		fmt.Printf("  %s\n", s)
	}
}
