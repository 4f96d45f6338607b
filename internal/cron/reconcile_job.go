package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/internal/tiers"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/metrics"
)

type ledgerReader interface {
	LedgerTotals(ctx context.Context) ([]loyalty.LedgerTotal, error)
	ListBalances(ctx context.Context) ([]models.Balance, error)
}

type balanceWriter interface {
	SaveBalance(ctx context.Context, balance *models.Balance) error
}

// ReconcileJobParams configure the balance reconciliation job.
type ReconcileJobParams struct {
	Logger  *logger.Logger
	Reader  ledgerReader
	Writer  balanceWriter
	Metrics *metrics.AwardMetrics
	Now     func() time.Time
}

// ReconcileJob cross-checks stored balance snapshots against the summed
// ledger and rewrites any row that drifted.
type ReconcileJob struct {
	logg    *logger.Logger
	reader  ledgerReader
	writer  balanceWriter
	metrics *metrics.AwardMetrics
	now     func() time.Time
}

// NewReconcileJob builds the reconciliation job.
func NewReconcileJob(params ReconcileJobParams) (*ReconcileJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil || params.Writer == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &ReconcileJob{
		logg:    params.Logger,
		reader:  params.Reader,
		writer:  params.Writer,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (j *ReconcileJob) Name() string { return "ledger-reconcile" }

// Run recomputes every customer's points from the ledger and repairs
// snapshots that disagree. Tier is recomputed from lifetime points, so a
// repaired row can move up but never below what its ledger supports.
func (j *ReconcileJob) Run(ctx context.Context) error {
	totals, err := j.reader.LedgerTotals(ctx)
	if err != nil {
		return fmt.Errorf("sum ledger: %w", err)
	}
	balances, err := j.reader.ListBalances(ctx)
	if err != nil {
		return fmt.Errorf("list balances: %w", err)
	}

	stored := make(map[string]models.Balance, len(balances))
	for _, balance := range balances {
		stored[balance.CustomerID.String()] = balance
	}

	var errs error
	drifted := 0
	for _, total := range totals {
		balance, ok := stored[total.CustomerID.String()]
		if !ok {
			// Ledger rows without a snapshot should not happen; awards
			// create the snapshot in the same transaction. Log and skip
			// rather than invent a row outside the award path.
			j.logg.Warn(j.logg.WithCustomerID(ctx, total.CustomerID.String()), "ledger rows without a balance snapshot")
			continue
		}
		if balance.CurrentPoints == total.CurrentPoints && balance.LifetimePoints == total.LifetimePoints {
			continue
		}

		drifted++
		now := j.now().UTC()
		repaired := balance
		repaired.CurrentPoints = total.CurrentPoints
		repaired.LifetimePoints = total.LifetimePoints
		repaired.Tier = tiers.TierOf(total.LifetimePoints)
		repaired.UpdatedAt = now

		rowCtx := j.logg.WithFields(ctx, map[string]any{
			"customer_id":     balance.CustomerID.String(),
			"stored_current":  balance.CurrentPoints,
			"ledger_current":  total.CurrentPoints,
			"stored_lifetime": balance.LifetimePoints,
			"ledger_lifetime": total.LifetimePoints,
		})
		if err := j.writer.SaveBalance(ctx, &repaired); err != nil {
			j.logg.Error(rowCtx, "failed to repair drifted balance", err)
			errs = multierr.Append(errs, fmt.Errorf("repair balance %s: %w", balance.CustomerID, err))
			continue
		}
		j.logg.Warn(rowCtx, "repaired drifted balance")
	}

	j.metrics.SetBalanceDrift(drifted)
	ctx = j.logg.WithFields(ctx, map[string]any{"customers": len(totals), "drifted": drifted})
	j.logg.Info(ctx, "balance reconciliation complete")
	return errs
}
