package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heritagepool/poolops/internal/config"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/repository"
	"github.com/heritagepool/poolops/internal/service"
)

func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics",
		Long:  "Show interaction and feedback statistics from the learning store",
		RunE:  runStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	interactionRepo := repository.NewInteractionRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	mappingRepo := repository.NewQueryMappingRepository(pool)
	patternRepo := repository.NewProductPatternRepository(pool)

	learningSvc := service.NewLearningService(mappingRepo, patternRepo)
	feedbackSvc := service.NewFeedbackService(interactionRepo, feedbackRepo, learningSvc)

	stats, err := feedbackSvc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Total interactions: %d\n", stats.TotalInteractions)
		fmt.Printf("Selection rate:     %.1f%%\n", stats.SelectionRate*100)
		fmt.Println("Feedback by type:")
		for feedbackType, count := range stats.FeedbackByType {
			fmt.Printf("  %-10s %d\n", feedbackType, count)
		}
	}

	return nil
}

func InteractionsCmd() *cobra.Command {
	var (
		userID string
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "interactions",
		Short: "List recorded search interactions",
		Long:  "List recorded search interactions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runInteractions(outputFormat, userID, limit, cursor)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().StringVar(&userID, "user", "", "Filter by technician user id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runInteractions(outputFormat, userID string, limit int, cursorStr string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	interactionRepo := repository.NewInteractionRepository(pool)

	cursor, err := pagination.DecodeCursor(cursorStr)
	if err != nil {
		return fmt.Errorf("invalid cursor: %w", err)
	}

	result, err := interactionRepo.ListWithCursor(ctx, userID, cursor, limit)
	if err != nil {
		return fmt.Errorf("failed to list interactions: %w", err)
	}

	if outputFormat == "json" {
		output := map[string]interface{}{
			"items":    result.Items,
			"cursor":   result.NextCursor,
			"has_more": result.HasMore,
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(result.Items) == 0 {
			fmt.Println("No interactions found")
			return nil
		}
		fmt.Println("Interactions:")
		for _, i := range result.Items {
			fmt.Printf("  %s: %q (session %s, %d suggestions, %s)\n",
				i.ID, i.UserQuery, i.SessionID, len(i.SuggestedProducts),
				i.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if result.HasMore && result.NextCursor != "" {
			fmt.Printf("\nMore results available. Use --cursor %s\n", result.NextCursor)
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
