package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <rxdoc://kind/name>",
	Short: "Read a cataloged page by URI",
	Long:  `Print the verbatim markdown for a cataloged page. kind is "component" or "doc".`,
	Example: `  rxdocs get rxdoc://component/Button
  rxdocs get rxdoc://doc/Installation
  rxdocs get component/DataTable`,
	Args: cobra.ExactArgs(1),
	Run:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	uri := strings.TrimPrefix(args[0], "rxdoc://")
	kind, name, ok := strings.Cut(uri, "/")
	if !ok || name == "" {
		log.Fatalf("invalid URI: need component/<name> or doc/<name>")
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	switch kind {
	case "component":
		resp, err := client.GetComponent(context.Background(), name)
		if err != nil {
			log.Fatalf("get component failed: %v", err)
		}
		fmt.Print(resp.Content)
	case "doc":
		resp, err := client.GetDocSection(context.Background(), name)
		if err != nil {
			log.Fatalf("get doc failed: %v", err)
		}
		fmt.Print(resp.Content)
	default:
		log.Fatalf("invalid kind %q: need component or doc", kind)
	}
}
