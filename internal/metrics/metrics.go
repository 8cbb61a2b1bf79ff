package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	VotesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readit_votes_cast_total",
			Help: "Vote casts by item kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	VoteRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readit_vote_retries_total",
			Help: "Vote casts retried after a transient storage error, by reason.",
		},
		[]string{"reason"},
	)

	AnnotateBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readit_annotate_batch_size",
			Help:    "Number of items annotated per ledger batch read.",
			Buckets: []float64{1, 5, 10, 30, 50, 100, 250, 500},
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route, method and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// Register adds every collector to reg. Call once at startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{VotesCast, VoteRetries, AnnotateBatchSize, RequestDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
