package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the AI search API request.
type SearchRequest struct {
	Description  string `json:"description"`
	UserID       string `json:"userId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
}

// SearchMatch represents one suggested product in the search response.
type SearchMatch struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Confidence    int     `json:"confidence"`
	Reason        string  `json:"reason"`
	IsManualEntry bool    `json:"isManualEntry"`
}

// SearchResponse represents the AI search API response.
type SearchResponse struct {
	Done             bool          `json:"done"`
	Matches          []SearchMatch `json:"matches"`
	Suggestions      []SearchMatch `json:"suggestions"`
	ManualEntryItems []SearchMatch `json:"manualEntryItems"`
	PlumbingMessage  string        `json:"plumbingMessage,omitempty"`
	Message          string        `json:"message,omitempty"`
	InteractionID    string        `json:"interactionId,omitempty"`
	CatalogStale     bool          `json:"catalogStale,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		userID       string
		sessionID    string
		propertyType string
	)

	cmd := &cobra.Command{
		Use:   "search <description>",
		Short: "Match repair parts from a description",
		Long:  "Sends a free-text parts description to the AI matcher and prints ranked catalog matches.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runSearch(args[0], userID, sessionID, propertyType, outputJSON)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Technician user id")
	cmd.Flags().StringVar(&sessionID, "session", "", "Estimate session id")
	cmd.Flags().StringVar(&propertyType, "property-type", "", "Property type (residential or commercial)")
	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

func runSearch(description, userID, sessionID, propertyType string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := SearchRequest{
		Description:  description,
		UserID:       userID,
		SessionID:    sessionID,
		PropertyType: propertyType,
	}

	resp, err := api.Post("/api/ai/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if searchResp.Done {
		fmt.Println(searchResp.Message)
		return nil
	}

	if len(searchResp.Matches) == 0 && len(searchResp.ManualEntryItems) == 0 {
		if searchResp.Message != "" {
			fmt.Println(searchResp.Message)
		} else {
			fmt.Println("No matches found.")
		}
		return nil
	}

	if searchResp.CatalogStale {
		fmt.Println("Warning: catalog data is stale")
	}

	if len(searchResp.Matches) > 0 {
		fmt.Printf("Found %d match(es):\n\n", len(searchResp.Matches))
		for i, m := range searchResp.Matches {
			fmt.Printf("%d. %s ($%.2f) [%d%%]\n", i+1, m.Name, m.Price, m.Confidence)
			if m.Reason != "" {
				fmt.Printf("   %s\n", m.Reason)
			}
			fmt.Printf("   SKU: %s\n", m.SKU)
			if i < len(searchResp.Matches)-1 {
				fmt.Println(strings.Repeat("-", 40))
			}
		}
	}

	if len(searchResp.Suggestions) > 0 {
		fmt.Println("\nFrequently used together:")
		for _, s := range searchResp.Suggestions {
			fmt.Printf("  %s (%s) [%d%%]\n", s.Name, s.SKU, s.Confidence)
		}
	}

	if len(searchResp.ManualEntryItems) > 0 {
		fmt.Printf("\n%s\n", searchResp.PlumbingMessage)
		for _, m := range searchResp.ManualEntryItems {
			fmt.Printf("  %s (%s)\n", m.Name, m.SKU)
		}
	}

	if searchResp.InteractionID != "" {
		fmt.Printf("\nInteraction: %s\n", searchResp.InteractionID)
	}

	return nil
}
