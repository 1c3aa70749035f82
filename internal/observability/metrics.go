package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// Tracer is the process-wide tracer for pipeline spans.
var Tracer = otel.Tracer("typewalk")

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "typewalk_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "typewalk_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	ClassesIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "typewalk_classes_indexed_total",
		Help: "Number of class definitions in the current revision.",
	})

	MroComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "typewalk_mro_computations_total",
		Help: "Total number of MRO linearizations computed.",
	})

	MroErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_mro_errors_total",
		Help: "Total number of MRO linearization failures by kind.",
	}, []string{"kind"})

	MetaclassConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "typewalk_metaclass_conflicts_total",
		Help: "Total number of metaclass conflicts detected.",
	})

	CycleRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "typewalk_cycle_recoveries_total",
		Help: "Total number of fixed-point recoveries for self-referential queries.",
	})

	MemoHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_memo_hits_total",
		Help: "Memoized query cache hits by table.",
	}, []string{"table"})

	MemoMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_memo_misses_total",
		Help: "Memoized query cache misses by table.",
	}, []string{"table"})

	DiagnosticsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_diagnostics_total",
		Help: "Diagnostics emitted by kind.",
	}, []string{"kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "typewalk_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RevisionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "typewalk_revision",
		Help: "Current analysis revision number.",
	})
)
