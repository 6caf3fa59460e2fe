package livesync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	failoverCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of live subscription endpoint rotations",
			Name:      "livesync_failovers_total",
			Namespace: "pft",
		},
	)

	notificationCnt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of transaction notifications received",
			Name:      "livesync_notifications_total",
			Namespace: "pft",
		},
	)

	subscriptionUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Whether a live subscription is currently established",
			Name:      "livesync_subscription_up",
			Namespace: "pft",
		},
	)
)

func init() {
	prometheus.MustRegister(
		failoverCnt,
		notificationCnt,
		subscriptionUp,
	)
}
