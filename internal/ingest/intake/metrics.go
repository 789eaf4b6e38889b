package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_batches_accepted_total",
		Help: "Number of upload batches that passed validation.",
	})

	batchesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_batches_rejected_total",
		Help: "Number of upload batches rejected by validation.",
	})

	notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_notify_failures_total",
		Help: "Number of batch notifications that failed to publish.",
	})
)
