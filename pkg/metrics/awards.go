package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AwardMetrics tracks points awarded and redeemed across the ledger.
type AwardMetrics struct {
	awarded      *prometheus.CounterVec
	redeemed     prometheus.Counter
	failures     *prometheus.CounterVec
	questsDone   prometheus.Counter
	balanceDrift prometheus.Gauge
}

// NewAwardMetrics registers the ledger metrics on the provided registerer.
func NewAwardMetrics(reg prometheus.Registerer) *AwardMetrics {
	if reg == nil {
		return &AwardMetrics{}
	}
	awarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Points awarded, labelled by source.",
	}, []string{"source"})
	redeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "points_redeemed_total",
		Help: "Points redeemed against balances.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "award_failures_total",
		Help: "Award operations rejected, labelled by error code.",
	}, []string{"code"})
	questsDone := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quests_completed_total",
		Help: "Quest completions processed.",
	})
	balanceDrift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "balance_drift_customers",
		Help: "Customers whose stored balance disagreed with the ledger at last reconciliation.",
	})
	reg.MustRegister(awarded, redeemed, failures, questsDone, balanceDrift)
	return &AwardMetrics{
		awarded:      awarded,
		redeemed:     redeemed,
		failures:     failures,
		questsDone:   questsDone,
		balanceDrift: balanceDrift,
	}
}

// IncAwarded adds the earned delta to the award counter for a source.
func (a *AwardMetrics) IncAwarded(source string, points int) {
	if a == nil || a.awarded == nil {
		return
	}
	a.awarded.WithLabelValues(normalizeLabel(source)).Add(float64(points))
}

// IncRedeemed adds the redeemed delta to the redemption counter.
func (a *AwardMetrics) IncRedeemed(points int) {
	if a == nil || a.redeemed == nil {
		return
	}
	a.redeemed.Add(float64(points))
}

// IncFailure increments the rejection counter for an error code.
func (a *AwardMetrics) IncFailure(code string) {
	if a == nil || a.failures == nil {
		return
	}
	a.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncQuestCompleted increments the quest completion counter.
func (a *AwardMetrics) IncQuestCompleted() {
	if a == nil || a.questsDone == nil {
		return
	}
	a.questsDone.Inc()
}

// SetBalanceDrift records how many customers drifted at the last reconciliation.
func (a *AwardMetrics) SetBalanceDrift(customers int) {
	if a == nil || a.balanceDrift == nil {
		return
	}
	a.balanceDrift.Set(float64(customers))
}
