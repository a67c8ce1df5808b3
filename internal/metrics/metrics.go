// Package metrics exposes the mixer's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinksCreated counts successful link creations
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "piemixer_links_created_total",
		Help: "Total number of graph links created by the mixer.",
	})

	// LinksRemoved counts successful link removals
	LinksRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "piemixer_links_removed_total",
		Help: "Total number of graph links removed by the mixer.",
	})

	// LinkFailures counts rejected link operations by operation kind
	LinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "piemixer_link_failures_total",
		Help: "Total number of link operations rejected by the graph service.",
	}, []string{"op"})

	// ReconcilePasses counts completed reconciliation passes
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "piemixer_reconcile_passes_total",
		Help: "Total number of completed reconciliation passes.",
	})

	// GraphEvents counts change notifications received from the graph
	GraphEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "piemixer_graph_events_total",
		Help: "Total number of graph change notifications processed.",
	}, []string{"kind"})

	// OwnedLinks tracks the current size of the owned link set
	OwnedLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "piemixer_owned_links",
		Help: "Number of links currently owned by the mixer.",
	})
)
