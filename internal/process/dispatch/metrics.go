package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_rows_processed_total",
		Help: "Number of batch rows that produced a conversation record.",
	})

	rowFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_row_failures_total",
		Help: "Number of batch rows that failed processing.",
	})
)
