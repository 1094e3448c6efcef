package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// LearningStats represents the learning stats API response.
type LearningStats struct {
	TotalInteractions int            `json:"totalInteractions"`
	FeedbackByType    map[string]int `json:"feedbackByType"`
	SelectionRate     float64        `json:"selectionRate"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics",
		Long:  "Shows how often AI suggestions are accepted and what feedback has been recorded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runStats(outputJSON)
		},
	}

	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

func runStats(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/api/ai/stats")
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	var stats LearningStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse stats: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Total interactions: %d\n", stats.TotalInteractions)
	fmt.Printf("Selection rate:     %.1f%%\n", stats.SelectionRate*100)
	if len(stats.FeedbackByType) > 0 {
		fmt.Println("Feedback by type:")
		for feedbackType, count := range stats.FeedbackByType {
			fmt.Printf("  %-10s %d\n", feedbackType, count)
		}
	}

	return nil
}
