package moderation

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(ReputationChangeCounter)
	prometheus.MustRegister(AdvertenceCounter)
	prometheus.MustRegister(FineCounter)
	prometheus.MustRegister(PaymentCounter)
	prometheus.MustRegister(PaymentDuration)
	prometheus.MustRegister(CollaboratorFailureCounter)
}

var ReputationChangeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "reputation_changes_total",
	Help: "Reputation deltas applied, by trigger",
}, []string{"trigger"})

var AdvertenceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "advertences_issued_total",
	Help: "Advertences issued, by source",
}, []string{"source"})

var FineCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "fines_created_total",
	Help: "Fines written to the ledger",
})

var PaymentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "payments_total",
	Help: "Coin payments attempted, by purpose and result",
}, []string{"purpose", "result"})

var PaymentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "payment_duration_seconds",
	Help:    "Latency of Coin payment calls",
	Buckets: prometheus.DefBuckets,
})

var CollaboratorFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "frontend_failures_total",
	Help: "Failed best-effort front-end calls, by operation",
}, []string{"op"})
