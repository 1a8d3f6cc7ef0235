package availabilitystore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics mirrors the original subsystem's per-operation timers and
// the chunk-reception counter. newMetrics always returns a non-nil
// *metrics; passing it a nil Registerer simply skips registration.
// Store and Service treat a nil *metrics as "no instrumentation".
type metrics struct {
	receivedChunksTotal    prometheus.Counter
	prunePoVs              prometheus.Histogram
	pruneChunks            prometheus.Histogram
	processBlockFinalized  prometheus.Histogram
	blockActivated         prometheus.Histogram
	processMessage         prometheus.Histogram
	storeAvailableData     prometheus.Histogram
	storeChunk             prometheus.Histogram
	getChunk               prometheus.Histogram
}

// newMetrics builds and registers the subsystem's metrics against reg.
// Passing a nil registry is valid and yields an instrumented-but-
// unregistered metrics set, useful for tests that want timers to run
// without a global registry side effect.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		receivedChunksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parachain_availability_store_received_chunks_total",
			Help: "Number of availability chunks received.",
		}),
		prunePoVs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_prune_povs_seconds",
			Help: "Time spent pruning PoV records.",
		}),
		pruneChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_prune_chunks_seconds",
			Help: "Time spent pruning chunk records.",
		}),
		processBlockFinalized: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_process_block_finalized_seconds",
			Help: "Time spent applying a block-finalized signal.",
		}),
		blockActivated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_block_activated_seconds",
			Help: "Time spent applying a block-activated signal.",
		}),
		processMessage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_process_message_seconds",
			Help: "Time spent handling one inbound message.",
		}),
		storeAvailableData: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_store_available_data_seconds",
			Help: "Time spent within store_available_data.",
		}),
		storeChunk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_store_chunk_seconds",
			Help: "Time spent within store_chunk.",
		}),
		getChunk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "parachain_availability_store_get_chunk_seconds",
			Help: "Time spent within get_chunk.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.receivedChunksTotal,
			m.prunePoVs,
			m.pruneChunks,
			m.processBlockFinalized,
			m.blockActivated,
			m.processMessage,
			m.storeAvailableData,
			m.storeChunk,
			m.getChunk,
		)
	}
	return m
}

func (m *metrics) onChunksReceived(count int) {
	m.receivedChunksTotal.Add(float64(count))
}

// timer starts a histogram timer and returns a func that observes the
// elapsed duration when called, typically deferred at the call site.
func timer(h prometheus.Histogram) func() {
	t := prometheus.NewTimer(h)
	return func() { t.ObserveDuration() }
}
