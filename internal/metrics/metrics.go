// Package metrics provides Prometheus metrics for udpfaf.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const (
	namespace = "udpfaf"
)

// Metrics contains all Prometheus metrics for senders and the probe listener.
//
// All Record methods are safe to call on a nil *Metrics, which makes metrics
// optional for every component.
type Metrics struct {
	// Sender lifecycle
	SendersOpen   prometheus.Gauge
	SendersOpened prometheus.Counter

	// Outgoing datagrams
	DatagramsSent       prometheus.Counter
	BytesSent           prometheus.Counter
	SendErrorsDiscarded prometheus.Counter
	DatagramSize        prometheus.Histogram

	// Probe listener
	DatagramsReceived prometheus.Counter
	BytesReceived     prometheus.Counter
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance registered with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance with a custom registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SendersOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "senders_open",
			Help:      "Number of currently open senders",
		}),
		SendersOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "senders_opened_total",
			Help:      "Total number of senders opened",
		}),

		DatagramsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_sent_total",
			Help:      "Total datagrams accepted by the local socket",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total payload bytes accepted by the local socket",
		}),
		SendErrorsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_discarded_total",
			Help:      "Total send errors returned by the platform and dropped",
		}),
		DatagramSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "datagram_size_bytes",
			Help:      "Payload size of sent datagrams",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 7),
		}),

		DatagramsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_datagrams_received_total",
			Help:      "Total datagrams received by the probe listener",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_bytes_received_total",
			Help:      "Total payload bytes received by the probe listener",
		}),
	}
}

// RecordSenderOpen records a sender acquiring its socket.
func (m *Metrics) RecordSenderOpen() {
	if m == nil {
		return
	}
	m.SendersOpen.Inc()
	m.SendersOpened.Inc()
}

// RecordSenderClose records a sender releasing its socket.
func (m *Metrics) RecordSenderClose() {
	if m == nil {
		return
	}
	m.SendersOpen.Dec()
}

// RecordSend records one datagram of n payload bytes handed to the socket.
func (m *Metrics) RecordSend(n int) {
	if m == nil {
		return
	}
	m.DatagramsSent.Inc()
	m.BytesSent.Add(float64(n))
	m.DatagramSize.Observe(float64(n))
}

// RecordDiscardedError records a send error that was dropped.
func (m *Metrics) RecordDiscardedError() {
	if m == nil {
		return
	}
	m.SendErrorsDiscarded.Inc()
}

// RecordReceive records one datagram of n bytes read by the probe listener.
func (m *Metrics) RecordReceive(n int) {
	if m == nil {
		return
	}
	m.DatagramsReceived.Inc()
	m.BytesReceived.Add(float64(n))
}

// WriteText writes the udpfaf metric families gathered from g to w in the
// Prometheus text exposition format. Families from other collectors are
// skipped.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
