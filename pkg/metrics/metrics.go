package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "lst_ledger"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"
)

// Labels holds constant labels applied to all metrics.
type Labels struct {
	Tool    string // binary emitting the metrics (e.g. "balancesharvester")
	Network string // network name (e.g. "mainnet", "holesky")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Tool != "" {
		labels["tool"] = l.Tool
	}
	if l.Network != "" {
		labels["network"] = l.Network
	}
	return labels
}

type Metrics struct {
	// RPC metrics
	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	rpcInFlight prometheus.Gauge

	// Harvester
	windowsQueried      prometheus.Counter
	checkpointsFetched  prometheus.Counter
	checkpointsAppended prometheus.Counter
	lastCheckpointBlock prometheus.Gauge

	// Ledger
	ledgerEvents *prometheus.CounterVec // by classification
	staleLookups prometheus.Counter
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	m := &Metrics{
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total RPC calls by method and status",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "RPC call duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		rpcInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "in_flight",
			Help:      "Number of RPC calls currently in progress",
		}),
		windowsQueried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvester",
			Name:      "windows_queried_total",
			Help:      "Block windows queried for BalancesUpdated events",
		}),
		checkpointsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvester",
			Name:      "checkpoints_fetched_total",
			Help:      "BalancesUpdated events returned by the node",
		}),
		checkpointsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvester",
			Name:      "checkpoints_appended_total",
			Help:      "Checkpoints appended to the store after deduplication",
		}),
		lastCheckpointBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "harvester",
			Name:      "last_checkpoint_block",
			Help:      "Block number of the newest stored checkpoint",
		}),
		ledgerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Transfer events by classification",
		}, []string{"class"}),
		staleLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ledger",
			Name:      "stale_lookups_total",
			Help:      "Rate lookups past the newest checkpoint",
		}),
	}

	err := errors.Join(
		reg.Register(m.rpcCalls),
		reg.Register(m.rpcDuration),
		reg.Register(m.rpcInFlight),
		reg.Register(m.windowsQueried),
		reg.Register(m.checkpointsFetched),
		reg.Register(m.checkpointsAppended),
		reg.Register(m.lastCheckpointBlock),
		reg.Register(m.ledgerEvents),
		reg.Register(m.staleLookups),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRPCCall records an RPC call with its status and duration.
func (m *Metrics) RecordRPCCall(method string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.rpcCalls.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(durationSeconds)
}

// IncRPCInFlight increments the in-flight RPC gauge.
func (m *Metrics) IncRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Inc()
}

// DecRPCInFlight decrements the in-flight RPC gauge.
func (m *Metrics) DecRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Dec()
}

// RecordWindow records one harvested block window and the events it returned.
func (m *Metrics) RecordWindow(events int) {
	if m == nil {
		return
	}
	m.windowsQueried.Inc()
	m.checkpointsFetched.Add(float64(events))
}

// RecordAppend records checkpoints written to the store and the new tail block.
func (m *Metrics) RecordAppend(count int, lastBlock uint64) {
	if m == nil {
		return
	}
	m.checkpointsAppended.Add(float64(count))
	if count > 0 {
		m.lastCheckpointBlock.Set(float64(lastBlock))
	}
}

// IncLedgerEvent counts one classified transfer event.
func (m *Metrics) IncLedgerEvent(class string) {
	if m == nil {
		return
	}
	m.ledgerEvents.WithLabelValues(class).Inc()
}

// IncStaleLookup counts one rate lookup served by the last checkpoint.
func (m *Metrics) IncStaleLookup() {
	if m == nil {
		return
	}
	m.staleLookups.Inc()
}
