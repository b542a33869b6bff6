package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BlocksIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "blocks_indexed_total",
		Help:      "Total blocks parsed and handed to the storage sink.",
	})

	TransactionsIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "transactions_indexed_total",
		Help:      "Total transaction documents handed to the storage sink.",
	})

	BatchesFlushed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "batches_flushed_total",
		Help:      "Sink batch writes by record kind.",
	}, []string{"kind"})

	StorageErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "storage_errors_total",
		Help:      "Sink writes that failed and were dropped.",
	})

	FilesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "block_files_processed_total",
		Help:      "Block files fully iterated.",
	})

	FileErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blkindex",
		Name:      "block_file_errors_total",
		Help:      "Block files abandoned due to errors.",
	})

	MissingHeights = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blkindex",
		Name:      "missing_heights",
		Help:      "Heights absent from the store after the last verification pass.",
	})
)

func init() {
	prometheus.MustRegister(
		BlocksIndexed,
		TransactionsIndexed,
		BatchesFlushed,
		StorageErrors,
		FilesProcessed,
		FileErrors,
		MissingHeights,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
