package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritagepool/poolops/internal/domain"
)

// QueryMappingRepository persists learned query→product mappings. The
// user_id column uses the empty string for global (anonymous) mappings so
// the upsert key stays non-null.
type QueryMappingRepository struct {
	db dbtx
}

func NewQueryMappingRepository(pool *pgxpool.Pool) *QueryMappingRepository {
	return &QueryMappingRepository{db: pool}
}

func NewQueryMappingRepositoryWithTx(tx pgx.Tx) *QueryMappingRepository {
	return &QueryMappingRepository{db: tx}
}

// FindByQuery returns mappings whose stored term is a substring match for the
// query, restricted to reliable ones (success rate above one half).
// User-specific mappings sort ahead of global ones.
func (r *QueryMappingRepository) FindByQuery(ctx context.Context, userID, query string, limit int) ([]*domain.QueryMapping, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, query_term, mapped_product_sku, success_count, total_count, last_used
		 FROM ai_query_mappings
		 WHERE (query_term ILIKE '%' || $2 || '%' OR $2 ILIKE '%' || query_term || '%')
		   AND (user_id = $1 OR user_id = '')
		   AND success_count::float / total_count::float > 0.5
		 ORDER BY (user_id = $1) DESC,
		          success_count DESC
		 LIMIT $3`,
		userID, query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*domain.QueryMapping
	for rows.Next() {
		var m domain.QueryMapping
		if err := rows.Scan(&m.ID, &m.UserID, &m.QueryTerm, &m.MappedProductSKU, &m.SuccessCount, &m.TotalCount, &m.LastUsed); err != nil {
			return nil, err
		}
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

// RecordUse upserts one mapping, incrementing both counters on repeat use.
func (r *QueryMappingRepository) RecordUse(ctx context.Context, userID, queryTerm, productSKU string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_query_mappings (id, user_id, query_term, mapped_product_sku, success_count, total_count, last_used)
		 VALUES ($1, $2, $3, $4, 1, 1, NOW())
		 ON CONFLICT (user_id, query_term, mapped_product_sku)
		 DO UPDATE SET success_count = ai_query_mappings.success_count + 1,
		               total_count = ai_query_mappings.total_count + 1,
		               last_used = NOW()`,
		uuid.NewString(), userID, queryTerm, productSKU,
	)
	return err
}
