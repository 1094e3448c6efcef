package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// FeedbackCmd creates the feedback command.
func FeedbackCmd() *cobra.Command {
	var (
		productName string
		quantity    int
	)

	cmd := &cobra.Command{
		Use:   "feedback <interaction-id> <sku> <type>",
		Short: "Record feedback on a suggested product",
		Long:  "Records selected, rejected, modified or ignored feedback for a product suggestion.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(args[0], args[1], args[2], productName, quantity)
		},
	}

	cmd.Flags().StringVar(&productName, "name", "", "Product name")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "Quantity selected")

	return cmd
}

func runFeedback(interactionID, sku, feedbackType, productName string, quantity int) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"interactionId": interactionID,
		"productSku":    sku,
		"productName":   productName,
		"feedbackType":  feedbackType,
	}
	if quantity > 0 {
		body["quantitySelected"] = quantity
	}

	if _, err := api.Post("/api/ai/log-feedback", body); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	fmt.Println("Feedback recorded")
	return nil
}

// CompleteCmd creates the complete command.
func CompleteCmd() *cobra.Command {
	var propertyType string

	cmd := &cobra.Command{
		Use:   "complete <session-id> <sku:qty> [sku:qty...]",
		Short: "Finalize an estimate session",
		Long:  "Attaches the final product selection to the session and updates co-occurrence patterns.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(args[0], args[1:], propertyType)
		},
	}

	cmd.Flags().StringVar(&propertyType, "property-type", "", "Property type (residential or commercial)")

	return cmd
}

func runComplete(sessionID string, items []string, propertyType string) error {
	selections := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		parts := strings.SplitN(item, ":", 2)
		quantity := 1
		if len(parts) == 2 {
			q, err := strconv.Atoi(parts[1])
			if err != nil || q < 1 {
				return fmt.Errorf("invalid quantity in %q", item)
			}
			quantity = q
		}
		selections = append(selections, map[string]interface{}{
			"sku":      parts[0],
			"quantity": quantity,
		})
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"sessionId":        sessionID,
		"selectedProducts": selections,
		"propertyType":     propertyType,
	}

	resp, err := api.Post("/api/ai/log-estimate-completion", body)
	if err != nil {
		return fmt.Errorf("failed to finalize estimate: %w", err)
	}

	var result map[string]bool
	if err := json.Unmarshal(resp.Data, &result); err == nil && result["success"] {
		fmt.Println("Estimate finalized")
	}
	return nil
}
