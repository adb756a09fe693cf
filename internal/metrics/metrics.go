package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_dataset_loads_total",
		Help: "Dataset load calls by outcome (hit, miss, error)",
	}, []string{"result"})

	rowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_dataset_rows_loaded_total",
		Help: "Rows parsed from accepted source files",
	})

	filesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_dataset_files_skipped_total",
		Help: "Candidate files rejected by the loader",
	})

	loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_dataset_load_seconds",
		Help:    "Time spent acquiring and parsing a dataset",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_query_seconds",
		Help:    "Time spent filtering and aggregating a view",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	bulkFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_bulk_files_total",
		Help: "Files written by bulk acquisition sources",
	}, []string{"source"})
)

func CacheHit()  { loadsTotal.WithLabelValues("hit").Inc() }
func CacheMiss() { loadsTotal.WithLabelValues("miss").Inc() }
func LoadError() { loadsTotal.WithLabelValues("error").Inc() }

func RowsLoaded(n int) { rowsLoaded.Add(float64(n)) }

func FilesSkipped(n int) { filesSkipped.Add(float64(n)) }

func RecordLoadDuration(d time.Duration) { loadDuration.Observe(d.Seconds()) }

func RecordQueryDuration(d time.Duration) { queryDuration.Observe(d.Seconds()) }

func BulkFiles(source string, n int) { bulkFiles.WithLabelValues(source).Add(float64(n)) }
