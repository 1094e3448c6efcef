package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heritagepool/poolops/internal/cli"
	"github.com/heritagepool/poolops/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "poolopsd",
		Short: "Poolops daemon and admin CLI",
		Long:  "Poolops daemon for running the API server and inspecting the learning store",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.StatsCmd())
	rootCmd.AddCommand(admin.InteractionsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
