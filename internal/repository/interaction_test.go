//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/testutil"
)

func TestInteractionRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	i := domain.NewInteraction(uuid.NewString(), "tech-1", "sess-1", "pump leaking",
		[]domain.SuggestedProduct{{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 92}},
		"commercial", time.Now().UTC().Truncate(time.Microsecond))

	err := repo.Create(ctx, i)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, i.ID, retrieved.ID)
	assert.Equal(t, "tech-1", retrieved.UserID)
	assert.Equal(t, "pump leaking", retrieved.UserQuery)
	require.Len(t, retrieved.SuggestedProducts, 1)
	assert.Equal(t, "P1", retrieved.SuggestedProducts[0].SKU)
	assert.Empty(t, retrieved.SelectedProducts)
}

func TestInteractionRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrInteractionNotFound)
}

func TestInteractionRepository_AnonymousUser(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	i := domain.NewInteraction(uuid.NewString(), "", "sess-1", "filter cartridge", nil, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, i))

	retrieved, err := repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.UserID)
	assert.Empty(t, retrieved.PropertyType)
}

func TestInteractionRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for n := 0; n < 3; n++ {
		i := domain.NewInteraction(uuid.NewString(), "tech-1", "sess-1", "query", nil, "",
			base.Add(time.Duration(n)*time.Second))
		require.NoError(t, repo.Create(ctx, i))
	}

	page, err := repo.ListWithCursor(ctx, "tech-1", nil, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	// Newest first.
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	cursor, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)

	next, err := repo.ListWithCursor(ctx, "tech-1", cursor, 2)
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.False(t, next.HasMore)
}

func TestInteractionRepository_AttachSelections(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	i := domain.NewInteraction(uuid.NewString(), "tech-1", "sess-9", "pump leaking", nil, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, i))

	selections := []domain.SelectedProduct{{SKU: "P1", Quantity: 1}, {SKU: "P3", Quantity: 2}}
	userID, err := repo.AttachSelections(ctx, "sess-9", selections)
	require.NoError(t, err)
	assert.Equal(t, "tech-1", userID)

	retrieved, err := repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, selections, retrieved.SelectedProducts)
}

func TestInteractionRepository_AttachSelections_UnknownSession(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	userID, err := repo.AttachSelections(ctx, "missing", []domain.SelectedProduct{{SKU: "P1", Quantity: 1}})
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestInteractionRepository_CountAll(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewInteractionRepository(pool)

	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.Create(ctx,
		domain.NewInteraction(uuid.NewString(), "", "sess-1", "pump", nil, "", time.Now().UTC())))

	count, err = repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
