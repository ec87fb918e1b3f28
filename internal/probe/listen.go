// Package probe receives datagrams so senders can be observed end to end.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/postalsys/udpfaf/internal/metrics"
)

const (
	// DefaultMaxDatagramSize fits any IPv4 UDP payload.
	DefaultMaxDatagramSize = 65535

	// pollInterval bounds how long a blocked read ignores context cancellation.
	pollInterval = 250 * time.Millisecond
)

// ListenOptions contains configuration for a probe listener.
type ListenOptions struct {
	// Address is the local IPv4 address and port to bind (e.g., "0.0.0.0:9999").
	// An empty address binds an ephemeral loopback port.
	Address string

	// MaxDatagramSize is the receive buffer size. Longer datagrams are truncated.
	MaxDatagramSize int

	// Metrics records received datagrams. Nil disables recording.
	Metrics *metrics.Metrics
}

// DatagramEvent describes one received datagram.
type DatagramEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	RemoteAddr string    `json:"remote_addr"`
	Size       int       `json:"size"`
	Payload    []byte    `json:"payload"`
}

// Listener reads datagrams from a bound UDP socket.
type Listener struct {
	conn    *net.UDPConn
	buf     []byte
	metrics *metrics.Metrics

	closeOnce sync.Once
	closeErr  error
}

// Bind opens the listening socket without starting to read from it.
func Bind(ctx context.Context, opts ListenOptions) (*Listener, error) {
	if opts.Address == "" {
		opts.Address = "127.0.0.1:0"
	}
	if opts.MaxDatagramSize <= 0 {
		opts.MaxDatagramSize = DefaultMaxDatagramSize
	}

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp4", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Address, err)
	}

	return &Listener{
		conn:    pc.(*net.UDPConn),
		buf:     make([]byte, opts.MaxDatagramSize),
		metrics: opts.Metrics,
	}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() netip.AddrPort {
	ap := l.conn.LocalAddr().(*net.UDPAddr).AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Serve delivers received datagrams to events until ctx is cancelled or the
// listener is closed. Cancellation returns ctx.Err(); Close returns nil.
func (l *Listener) Serve(ctx context.Context, events chan<- DatagramEvent) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, err := l.read(time.Now().Add(pollInterval))
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// read waits for one datagram until deadline.
func (l *Listener) read(deadline time.Time) (DatagramEvent, error) {
	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return DatagramEvent{}, err
	}

	n, from, err := l.conn.ReadFromUDPAddrPort(l.buf)
	if err != nil {
		return DatagramEvent{}, err
	}
	l.metrics.RecordReceive(n)

	payload := make([]byte, n)
	copy(payload, l.buf[:n])

	return DatagramEvent{
		Timestamp:  time.Now(),
		RemoteAddr: netip.AddrPortFrom(from.Addr().Unmap(), from.Port()).String(),
		Size:       n,
		Payload:    payload,
	}, nil
}

// Close releases the socket. It is safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// Listen binds opts.Address and delivers datagrams to events until ctx is
// cancelled.
func Listen(ctx context.Context, opts ListenOptions, events chan<- DatagramEvent) error {
	l, err := Bind(ctx, opts)
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Serve(ctx, events)
}
