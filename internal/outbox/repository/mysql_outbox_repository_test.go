package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turgayozgur/eshop-ordering/internal/outbox/domain"
	"github.com/turgayozgur/eshop-ordering/internal/testutil"
)

func TestMySQLOutboxEventRepository_CreateAndGetPending(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLOutboxEventRepository(db)
	ctx := context.Background()

	event, err := domain.NewEvent("payment.succeeded", map[string]any{"order_id": 42})
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, event))

	events, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, "payment.succeeded", events[0].EventType)
}

func TestMySQLOutboxEventRepository_MarkPublished(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLOutboxEventRepository(db)
	ctx := context.Background()

	event, err := domain.NewEvent("payment.succeeded", map[string]any{"order_id": 42})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, event))

	require.NoError(t, repo.MarkPublished(ctx, event.ID))

	events, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
