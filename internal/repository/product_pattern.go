package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritagepool/poolops/internal/domain"
)

// ProductPatternRepository persists directed co-occurrence edges between
// products. Like query mappings, user_id and property_type use the empty
// string rather than NULL so they can participate in the upsert key.
type ProductPatternRepository struct {
	db dbtx
}

func NewProductPatternRepository(pool *pgxpool.Pool) *ProductPatternRepository {
	return &ProductPatternRepository{db: pool}
}

func NewProductPatternRepositoryWithTx(tx pgx.Tx) *ProductPatternRepository {
	return &ProductPatternRepository{db: tx}
}

// FindRelated aggregates co-occurrence counts across the given primary skus,
// summing rows from all users per related sku. SKUs that are themselves in
// the primary set are excluded. Related skus the user has personally
// co-selected sort ahead of purely global ones; within each group the summed
// count decides. propertyType biases the lookup (patterns recorded without a
// property type always qualify).
func (r *ProductPatternRepository) FindRelated(ctx context.Context, userID string, skus []string, propertyType string, limit int) ([]*domain.RelatedProduct, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := r.db.Query(ctx,
		`SELECT related_product_sku, SUM(co_occurrence_count) AS total
		 FROM ai_product_patterns
		 WHERE primary_product_sku = ANY($2)
		   AND NOT (related_product_sku = ANY($2))
		   AND ($3 = '' OR property_type = $3 OR property_type = '')
		 GROUP BY related_product_sku
		 ORDER BY MAX(CASE WHEN $1 <> '' AND user_id = $1 THEN 1 ELSE 0 END) DESC,
		          total DESC
		 LIMIT $4`,
		userID, skus, propertyType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var related []*domain.RelatedProduct
	for rows.Next() {
		var rp domain.RelatedProduct
		if err := rows.Scan(&rp.SKU, &rp.Count); err != nil {
			return nil, err
		}
		related = append(related, &rp)
	}
	return related, rows.Err()
}

// IncrementPattern upserts one directed edge. On conflict the count grows and
// the quantity ratio folds into a running average weighted by prior count.
func (r *ProductPatternRepository) IncrementPattern(ctx context.Context, p *domain.ProductPattern) error {
	count := p.CoOccurrenceCount
	if count <= 0 {
		count = 1
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_product_patterns (id, user_id, primary_product_sku, related_product_sku, co_occurrence_count, property_type, avg_quantity_ratio, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (user_id, primary_product_sku, related_product_sku, property_type)
		 DO UPDATE SET
		     avg_quantity_ratio = (ai_product_patterns.avg_quantity_ratio * ai_product_patterns.co_occurrence_count
		                           + EXCLUDED.avg_quantity_ratio * EXCLUDED.co_occurrence_count)
		                          / (ai_product_patterns.co_occurrence_count + EXCLUDED.co_occurrence_count),
		     co_occurrence_count = ai_product_patterns.co_occurrence_count + EXCLUDED.co_occurrence_count,
		     last_updated = NOW()`,
		uuid.NewString(), p.UserID, p.PrimaryProductSKU, p.RelatedProductSKU, count, p.PropertyType, p.AvgQuantityRatio,
	)
	return err
}
