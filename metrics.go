package xrootd

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
)

// metrics holds the filesystem collectors. Filesystems sharing a
// Registerer share the collectors.
type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
	leaves   *prometheus.CounterVec
	verify   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrootdfs_remote_calls_total",
				Help: "Total number of remote xrootd calls",
			},
			[]string{"op", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xrootdfs_remote_call_duration_seconds",
				Help:    "Remote xrootd call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrootdfs_bytes_total",
				Help: "Total bytes transferred by file handles",
			},
			[]string{"direction"},
		),
		leaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrootdfs_bulk_leaf_operations_total",
				Help: "Total number of leaf operations dispatched by bulk calls",
			},
			[]string{"op", "result"},
		),
		verify: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrootdfs_close_verifications_total",
				Help: "Total number of close-time integrity checks",
			},
			[]string{"result"},
		),
	}
	if reg == nil {
		return m
	}
	m.calls = register(reg, m.calls)
	m.duration = register(reg, m.duration)
	m.bytes = register(reg, m.bytes)
	m.leaves = register(reg, m.leaves)
	m.verify = register(reg, m.verify)
	return m
}

// register registers c, reusing an identical collector already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) observeCall(op string, start time.Time, err error) {
	code := "OK"
	if err != nil {
		code = string(xerrors.GetCode(err))
	}
	m.calls.WithLabelValues(op, code).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metrics) addBytes(direction string, n int) {
	if n > 0 {
		m.bytes.WithLabelValues(direction).Add(float64(n))
	}
}

func (m *metrics) observeLeaf(op string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.leaves.WithLabelValues(op, result).Inc()
}

func (m *metrics) observeVerify(err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.verify.WithLabelValues(result).Inc()
}
