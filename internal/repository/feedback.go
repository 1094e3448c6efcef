package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritagepool/poolops/internal/domain"
)

// FeedbackRepository persists per-product feedback records.
type FeedbackRepository struct {
	db dbtx
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: pool}
}

func NewFeedbackRepositoryWithTx(tx pgx.Tx) *FeedbackRepository {
	return &FeedbackRepository{db: tx}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *domain.FeedbackRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_product_feedback (id, interaction_id, product_sku, product_name, feedback_type, quantity_selected, confidence_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.InteractionID, f.ProductSKU, f.ProductName, string(f.FeedbackType), f.QuantitySelected, f.ConfidenceScore, f.CreatedAt,
	)
	return err
}

func (r *FeedbackRepository) CountByType(ctx context.Context) (map[domain.FeedbackType]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT feedback_type, COUNT(*) FROM ai_product_feedback GROUP BY feedback_type`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.FeedbackType]int)
	for rows.Next() {
		var ft string
		var n int
		if err := rows.Scan(&ft, &n); err != nil {
			return nil, err
		}
		counts[domain.FeedbackType(ft)] = n
	}
	return counts, rows.Err()
}
