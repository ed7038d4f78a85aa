// Package metrics exposes Prometheus instrumentation for order placement.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts successfully placed orders by source (ONLINE/POS)
	// and order type.
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cravewave_orders_created_total",
		Help: "Orders successfully placed.",
	}, []string{"source", "order_type"})

	// OrderFailures counts order placements that did not reach the store.
	OrderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cravewave_order_failures_total",
		Help: "Order placements that failed before commit.",
	})

	// OrderTotal observes the grand total of placed orders.
	OrderTotal = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cravewave_order_total_amount",
		Help:    "Grand total of placed orders.",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})
)
