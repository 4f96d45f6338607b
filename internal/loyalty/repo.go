package loyalty

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/pagination"
)

// Repository exposes persistence helpers for balances and the points ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetBalance(ctx context.Context, customerID uuid.UUID) (*models.Balance, error)
	GetBalanceForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Balance, error)
	CreateBalance(ctx context.Context, balance *models.Balance) error
	SaveBalance(ctx context.Context, balance *models.Balance) error
	ListBalances(ctx context.Context) ([]models.Balance, error)
	CreateTransaction(ctx context.Context, txn *models.PointTransaction) error
	ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error)
	LedgerTotals(ctx context.Context) ([]LedgerTotal, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTransactionsParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// LedgerTotal is the per-customer sum of ledger rows, used to cross-check
// the stored balance snapshot.
type LedgerTotal struct {
	CustomerID     uuid.UUID `gorm:"column:customer_id"`
	CurrentPoints  int       `gorm:"column:current_points"`
	LifetimePoints int       `gorm:"column:lifetime_points"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetBalance(ctx context.Context, customerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	if err := r.db.WithContext(ctx).First(&balance, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetBalanceForUpdate locks the balance row for the rest of the transaction
// so concurrent awards serialize instead of clobbering each other.
func (r *repositoryImpl) GetBalanceForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&balance, "customer_id = ?", customerID).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// CreateBalance inserts a zero-state balance row. Concurrent first earns can
// both attempt the insert, so the conflict is swallowed and the caller
// re-takes the row lock to load whichever row won.
func (r *repositoryImpl) CreateBalance(ctx context.Context, balance *models.Balance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).
		Create(balance).Error
}

func (r *repositoryImpl) SaveBalance(ctx context.Context, balance *models.Balance) error {
	return r.db.WithContext(ctx).
		Model(&models.Balance{}).
		Where("customer_id = ?", balance.CustomerID).
		UpdateColumns(map[string]any{
			"current_points":   balance.CurrentPoints,
			"lifetime_points":  balance.LifetimePoints,
			"tier":             balance.Tier,
			"last_activity_at": balance.LastActivityAt,
			"updated_at":       balance.UpdatedAt,
		}).Error
}

func (r *repositoryImpl) ListBalances(ctx context.Context) ([]models.Balance, error) {
	var balances []models.Balance
	if err := r.db.WithContext(ctx).Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *repositoryImpl) CreateTransaction(ctx context.Context, txn *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repositoryImpl) ListTransactions(ctx context.Context, params listTransactionsParams) ([]models.PointTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("customer_id = ?", params.CustomerID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var txns []models.PointTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, nil, err
	}

	if len(txns) > normalized {
		next := txns[normalized]
		txns = txns[:normalized]
		return txns, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return txns, nil, nil
}

func (r *repositoryImpl) LedgerTotals(ctx context.Context) ([]LedgerTotal, error) {
	var totals []LedgerTotal
	err := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Select("customer_id, SUM(delta) AS current_points, SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END) AS lifetime_points").
		Group("customer_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
