package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/service"
)

// InteractionRepository persists the append-only learning log of search
// interactions.
type InteractionRepository struct {
	db dbtx
}

func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: pool}
}

func NewInteractionRepositoryWithTx(tx pgx.Tx) *InteractionRepository {
	return &InteractionRepository{db: tx}
}

func (r *InteractionRepository) Create(ctx context.Context, i *domain.Interaction) error {
	suggestedJSON, err := json.Marshal(i.SuggestedProducts)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO ai_learning_interactions (id, user_id, session_id, user_query, suggested_products, property_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, nullableString(i.UserID), i.SessionID, i.UserQuery, suggestedJSON, nullableString(i.PropertyType), i.CreatedAt,
	)
	return err
}

func (r *InteractionRepository) GetByID(ctx context.Context, id string) (*domain.Interaction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, session_id, user_query, suggested_products, selected_products, property_type, created_at
		 FROM ai_learning_interactions WHERE id = $1`,
		id,
	)
	i, err := scanInteraction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInteractionNotFound
		}
		return nil, err
	}
	return i, nil
}

// ListWithCursor pages interactions newest first. An empty userID lists all
// technicians.
func (r *InteractionRepository) ListWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*service.InteractionPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, user_id, session_id, user_query, suggested_products, selected_products, property_type, created_at
		 FROM ai_learning_interactions`
	var conds []string
	var args []any

	addArg := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if userID != "" {
		addArg("user_id = $%d", userID)
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.InteractionPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// AttachSelections stores the finalized selection on every interaction of the
// session and returns the user id of the most recent one, empty when the
// session logged no interactions.
func (r *InteractionRepository) AttachSelections(ctx context.Context, sessionID string, selections []domain.SelectedProduct) (string, error) {
	selectedJSON, err := json.Marshal(selections)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(ctx,
		`UPDATE ai_learning_interactions SET selected_products = $1 WHERE session_id = $2`,
		selectedJSON, sessionID,
	)
	if err != nil {
		return "", err
	}

	var userID *string
	err = r.db.QueryRow(ctx,
		`SELECT user_id FROM ai_learning_interactions
		 WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if userID == nil {
		return "", nil
	}
	return *userID, nil
}

func (r *InteractionRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ai_learning_interactions`).Scan(&count)
	return count, err
}

func scanInteraction(row pgx.Row) (*domain.Interaction, error) {
	var i domain.Interaction
	var userID, propertyType *string
	var suggestedJSON []byte
	var selectedJSON []byte

	err := row.Scan(&i.ID, &userID, &i.SessionID, &i.UserQuery, &suggestedJSON, &selectedJSON, &propertyType, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		i.UserID = *userID
	}
	if propertyType != nil {
		i.PropertyType = *propertyType
	}
	if len(suggestedJSON) > 0 {
		if err := json.Unmarshal(suggestedJSON, &i.SuggestedProducts); err != nil {
			return nil, err
		}
	}
	if len(selectedJSON) > 0 {
		if err := json.Unmarshal(selectedJSON, &i.SelectedProducts); err != nil {
			return nil, err
		}
	}
	return &i, nil
}
