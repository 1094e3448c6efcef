package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var (
		apiKey string
		apiURL string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Store API credentials",
		Long:  "Stores the API key and server URL in the global config for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(apiKey, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the poolops server")
	cmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "Base URL of the poolops server")
	cmd.MarkFlagRequired("api-key")

	return cmd
}

func runInit(apiKey, apiURL string) error {
	if apiKey == "" {
		return fmt.Errorf("--api-key is required")
	}

	// Verify the credentials before persisting them
	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		return err
	}
	if _, err := api.Get("/api/products/status"); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIKey: apiKey, APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()
	fmt.Printf("Credentials saved to %s\n", configPath)
	return nil
}

// LogoutCmd creates the logout command.
func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return err
			}
			fmt.Println("Credentials removed")
			return nil
		},
	}
}
