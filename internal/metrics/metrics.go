// Package metrics exposes Prometheus collectors for the layout session
// layer and the ingest pipeline. The layout engine itself carries no
// instrumentation; sessions observe it from the outside.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Layout session metrics
var (
	LayoutSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archivum_layout_sessions_active",
		Help: "Open WebSocket layout sessions",
	})

	LayoutSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archivum_layout_sessions_total",
		Help: "Layout sessions opened since start",
	})

	LayoutTicksRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archivum_layout_ticks_relayed_total",
		Help: "Position snapshots written to layout clients",
	})

	LayoutSnapshotsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archivum_layout_snapshots_dropped_total",
		Help: "Position snapshots dropped because a client could not keep up",
	})

	LayoutDragUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archivum_layout_drag_updates_total",
		Help: "Node drag updates received from layout clients",
	})

	LayoutSnapshotWriteSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archivum_layout_snapshot_write_seconds",
		Help:    "Time to write one position snapshot to a layout client",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.033, 0.1, 1},
	})
)

// Ingest metrics
var (
	IngestSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archivum_ingest_syncs_total",
		Help: "Source sync attempts by outcome",
	}, []string{"source", "status"})

	IngestSyncSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archivum_ingest_sync_seconds",
		Help:    "Time to load and reconcile one source sync",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"source"})
)
