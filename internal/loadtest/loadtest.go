// Package loadtest drives a datagram sender at a fixed rate for benchmarking.
package loadtest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/postalsys/udpfaf/internal/payload"
)

// SequenceSize is the number of leading payload bytes that carry the
// big-endian datagram sequence number.
const SequenceSize = 8

// DatagramSender is the subset of a UDP sender the generator needs.
type DatagramSender interface {
	Send(data []byte)
}

// DatagramMetrics contains metrics from a datagram load run.
type DatagramMetrics struct {
	Sent               int64
	Bytes              int64
	Duration           time.Duration
	DatagramsPerSecond float64
	ThroughputMBps     float64
}

// String formats the metrics as a one-line summary.
func (m *DatagramMetrics) String() string {
	return fmt.Sprintf("sent %s datagrams (%s) in %s, %.1f datagrams/s, %.2f MB/s",
		humanize.Comma(m.Sent),
		humanize.IBytes(uint64(m.Bytes)),
		m.Duration.Round(time.Millisecond),
		m.DatagramsPerSecond,
		m.ThroughputMBps)
}

// DatagramLoadGenerator sends fixed-size datagrams until a count or a
// duration is reached, optionally rate limited.
type DatagramLoadGenerator struct {
	count     int
	size      int
	perSecond float64
	duration  time.Duration
}

// NewDatagramLoadGenerator creates a new datagram load generator.
// A count or duration of zero means unbounded on that axis; a perSecond of
// zero disables rate limiting.
func NewDatagramLoadGenerator(count, size int, perSecond float64, duration time.Duration) *DatagramLoadGenerator {
	return &DatagramLoadGenerator{
		count:     count,
		size:      size,
		perSecond: perSecond,
		duration:  duration,
	}
}

// Run sends datagrams through s. It stops when the count is reached, the
// duration elapses or ctx ends; the last two are not errors.
func (g *DatagramLoadGenerator) Run(ctx context.Context, s DatagramSender) (*DatagramMetrics, error) {
	if g.count <= 0 && g.duration <= 0 {
		return nil, errors.New("either a datagram count or a duration is required")
	}
	if g.size < 0 || g.size > payload.MaxIPv4Payload {
		return nil, fmt.Errorf("datagram size %d out of range 0-%d", g.size, payload.MaxIPv4Payload)
	}
	if g.perSecond < 0 {
		return nil, fmt.Errorf("negative rate %v", g.perSecond)
	}

	data, err := payload.Random(g.size)
	if err != nil {
		return nil, err
	}

	if g.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if g.perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(g.perSecond), 1)
	}

	metrics := &DatagramMetrics{}
	startTime := time.Now()

	for g.count <= 0 || metrics.Sent < int64(g.count) {
		if ctx.Err() != nil {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		if len(data) >= SequenceSize {
			binary.BigEndian.PutUint64(data, uint64(metrics.Sent))
		}
		s.Send(data)

		metrics.Sent++
		metrics.Bytes += int64(len(data))
	}

	metrics.Duration = time.Since(startTime)
	if metrics.Duration > 0 {
		seconds := metrics.Duration.Seconds()
		metrics.DatagramsPerSecond = float64(metrics.Sent) / seconds
		metrics.ThroughputMBps = float64(metrics.Bytes) / (1024 * 1024) / seconds
	}

	return metrics, nil
}

// Sequence extracts the sequence number written by Run.
func Sequence(b []byte) (uint64, bool) {
	if len(b) < SequenceSize {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
