package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ModeSingle = "single"
	ModeBatch  = "batch"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_total",
			Help: "Purchase attempts by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	purchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_purchase_duration_seconds",
			Help:    "Time spent validating and committing a purchase",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"mode"},
	)

	matchAvailableTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_available_tickets",
			Help: "Tickets still on sale per match",
		},
		[]string{"match_id"},
	)
)

// TrackPurchase records one purchase attempt. outcome is OutcomeSuccess or a lower-cased error kind.
func TrackPurchase(mode, outcome string, duration time.Duration) {
	purchasesTotal.WithLabelValues(mode, outcome).Inc()
	purchaseDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func SetMatchAvailability(matchID uint, available int) {
	matchAvailableTickets.WithLabelValues(strconv.FormatUint(uint64(matchID), 10)).Set(float64(available))
}

func ForgetMatch(matchID uint) {
	matchAvailableTickets.DeleteLabelValues(strconv.FormatUint(uint64(matchID), 10))
}
