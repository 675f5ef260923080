package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WagersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fightbook_wagers_placed_total",
			Help: "Total number of wagers placed",
		},
	)

	WagersSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fightbook_wagers_settled_total",
			Help: "Total number of wagers settled, by outcome",
		},
		[]string{"outcome"},
	)

	WagersRefundedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fightbook_wagers_refunded_total",
			Help: "Total number of wagers refunded",
		},
	)

	AmountRefundedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fightbook_amount_refunded_total",
			Help: "Total virtual currency refunded",
		},
	)

	ConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fightbook_conflict_retries_total",
			Help: "Total transaction conflicts that triggered a retry",
		},
	)

	BatchItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fightbook_batch_item_failures_total",
			Help: "Total per-wager failures inside refund/settlement batches",
		},
		[]string{"batch"},
	)
)
