package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heritagepool/poolops/internal/cli"
	"github.com/heritagepool/poolops/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "poolops",
		Short: "Poolops CLI - AI product matching for pool service estimates",
		Long: `Poolops CLI provides commands to match repair parts and manage the learning loop.

Environment variables:
  POOLOPS_API_KEY   API key for authentication (required)
  POOLOPS_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.LogoutCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.TranscribeCmd())
	rootCmd.AddCommand(client.FeedbackCmd())
	rootCmd.AddCommand(client.CompleteCmd())
	rootCmd.AddCommand(client.ProductsCmd())
	rootCmd.AddCommand(client.StatsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
