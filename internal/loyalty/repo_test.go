package loyalty

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	balances := `
CREATE TABLE IF NOT EXISTS balances (
  customer_id TEXT PRIMARY KEY,
  current_points INTEGER NOT NULL DEFAULT 0 CHECK (current_points >= 0),
  lifetime_points INTEGER NOT NULL DEFAULT 0 CHECK (lifetime_points >= 0),
  tier TEXT NOT NULL DEFAULT 'bronze',
  last_activity_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS point_transactions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  delta INTEGER NOT NULL CHECK (delta <> 0),
  kind TEXT NOT NULL,
  source_type TEXT NOT NULL,
  source_id TEXT,
  description TEXT NOT NULL DEFAULT '',
  expires_at DATETIME,
  created_at DATETIME
);`
	uniqueSource := `
CREATE UNIQUE INDEX IF NOT EXISTS uniq_point_transactions_source
  ON point_transactions (customer_id, source_type, source_id)
  WHERE source_id IS NOT NULL;`

	require.NoError(t, db.Exec(balances).Error)
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(uniqueSource).Error)
	return db
}

func seedBalance(t *testing.T, db *gorm.DB, current, lifetime int, tier enums.Tier) *models.Balance {
	t.Helper()
	balance := &models.Balance{
		CustomerID:     uuid.New(),
		CurrentPoints:  current,
		LifetimePoints: lifetime,
		Tier:           tier,
	}
	require.NoError(t, db.Create(balance).Error)
	return balance
}

func earnRow(customerID uuid.UUID, delta int, sourceType enums.PointSource, sourceID *uuid.UUID) *models.PointTransaction {
	kind := enums.PointTransactionKindEarned
	if delta < 0 {
		kind = enums.PointTransactionKindRedeemed
	}
	return &models.PointTransaction{
		ID:         uuid.New(),
		CustomerID: customerID,
		Delta:      delta,
		Kind:       kind,
		SourceType: sourceType,
		SourceID:   sourceID,
	}
}

func TestRepository_DuplicateSourceRejected(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	sourceID := uuid.New()

	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, 100, enums.PointSourceQuest, &sourceID)))

	err := repo.CreateTransaction(ctx, earnRow(customerID, 100, enums.PointSourceQuest, &sourceID))
	require.Error(t, err)

	// Same source for a different customer is fine.
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(uuid.New(), 100, enums.PointSourceQuest, &sourceID)))
}

func TestRepository_NullSourceNeverCollides(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, 50, enums.PointSourceManual, nil)))
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, 50, enums.PointSourceManual, nil)))
}

func TestRepository_CreateBalanceIgnoresExistingRow(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	balance := seedBalance(t, db, 100, 100, enums.TierBronze)

	// A losing first-earn insert must be a no-op, not an error.
	require.NoError(t, repo.CreateBalance(ctx, &models.Balance{
		CustomerID: balance.CustomerID,
		Tier:       enums.TierBronze,
	}))

	got, err := repo.GetBalance(ctx, balance.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.CurrentPoints)
	assert.Equal(t, 100, got.LifetimePoints)
}

func TestRepository_SaveBalanceRoundTrip(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	balance := seedBalance(t, db, 100, 100, enums.TierBronze)

	now := time.Now().UTC()
	balance.CurrentPoints = 700
	balance.LifetimePoints = 700
	balance.Tier = enums.TierSilver
	balance.LastActivityAt = &now
	balance.UpdatedAt = now
	require.NoError(t, repo.SaveBalance(ctx, balance))

	got, err := repo.GetBalance(ctx, balance.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, 700, got.CurrentPoints)
	assert.Equal(t, enums.TierSilver, got.Tier)
	require.NotNil(t, got.LastActivityAt)
}

func TestRepository_ListTransactionsPaginates(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		row := earnRow(customerID, 10*(i+1), enums.PointSourcePurchase, nil)
		require.NoError(t, repo.CreateTransaction(ctx, row))
		require.NoError(t, db.Model(row).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	first, cursor, err := repo.ListTransactions(ctx, listTransactionsParams{CustomerID: customerID, Limit: 3})
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Len(t, first, 3)

	second, next, err := repo.ListTransactions(ctx, listTransactionsParams{CustomerID: customerID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Len(t, second, 2)

	// Newest first.
	assert.Equal(t, 50, first[0].Delta)
}

func TestRepository_LedgerTotals(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, 600, enums.PointSourceQuest, nil)))
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, 150, enums.PointSourceReview, nil)))
	require.NoError(t, repo.CreateTransaction(ctx, earnRow(customerID, -200, enums.PointSourceManual, nil)))

	totals, err := repo.LedgerTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, customerID, totals[0].CustomerID)
	assert.Equal(t, 550, totals[0].CurrentPoints)
	assert.Equal(t, 750, totals[0].LifetimePoints)
}
