package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scanRuns counts completed scans.
	// Labels: mode (full, incremental, noop)
	scanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "scan",
		Name:      "runs_total",
		Help:      "Total completed scans by mode",
	}, []string{"mode"})

	// scanDuration measures end-to-end scan time.
	// Labels: mode
	scanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archgraph",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "Scan duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})

	// filesScanned counts files handed to detectors
	filesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "scan",
		Name:      "files_scanned_total",
		Help:      "Total files run through detectors",
	})

	// recordsWritten counts store writes.
	// Labels: kind (component, connection)
	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "store",
		Name:      "records_written_total",
		Help:      "Total component and connection records rewritten",
	}, []string{"kind"})

	// scanWarnings counts non-fatal scan warnings.
	// Labels: type (unreadable-file, parse-error, detector-panic, ...)
	scanWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "scan",
		Name:      "warnings_total",
		Help:      "Total scan warnings by type",
	}, []string{"type"})

	// scanFailures counts scans that returned an error
	scanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "scan",
		Name:      "failures_total",
		Help:      "Total scans that failed",
	})
)
