package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/reflex-tools/rxdocs/internal/config"
	"github.com/reflex-tools/rxdocs/internal/daemon"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog contents and daemon state",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if resp.Components == 0 && resp.DocSections == 0 {
		fmt.Println("catalog is empty (run `rxdocs index` first)")
		return
	}

	fmt.Printf("  components:   %d (%d categories)\n", resp.Components, resp.Categories)
	fmt.Printf("  doc sections: %d (%d sections)\n", resp.DocSections, resp.Sections)
	if resp.LastRebuildAt != "" {
		fmt.Printf("  last rebuild: %s\n", resp.LastRebuildAt)
	}
	if resp.DocsRoot != "" {
		fmt.Printf("  docs root:    %s\n", resp.DocsRoot)
	}
	fmt.Printf("  database:     %s\n", resp.DBPath)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.Shutdown(context.Background()); err != nil {
		// Connection reset is expected, the daemon exits after responding
		fmt.Println("daemon stopped")
		return
	}
	fmt.Println("daemon stopped")
}
