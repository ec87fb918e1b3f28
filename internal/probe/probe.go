package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/postalsys/udpfaf/internal/payload"
	"github.com/postalsys/udpfaf/internal/udp"
)

// Options contains configuration for a loopback probe.
type Options struct {
	// Size is the probe payload size in bytes (default: 32)
	Size int

	// Timeout for the entire probe operation (default: 2s)
	Timeout time.Duration

	// Sender carries socket options applied to the probing sender.
	// Its Logger and Metrics are passed through unchanged.
	Sender udp.Config
}

// Result contains the outcome of a loopback probe.
type Result struct {
	// Success indicates whether the probe datagram arrived intact
	Success bool

	// Address is the loopback address the probe was sent to
	Address string

	// Bytes is the probe payload size
	Bytes int

	// RTT is the time from send until the datagram was read back
	RTT time.Duration

	// Error is the error that occurred (if any)
	Error error

	// ErrorDetail is a human-readable description of the error
	ErrorDetail string
}

// Probe sends one datagram through a Sender to a listener bound on the
// loopback interface and reports whether it arrived byte for byte.
// It verifies that the local stack accepts the sender's socket options.
func Probe(ctx context.Context, opts Options) *Result {
	if opts.Size <= 0 {
		opts.Size = 32
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	result := &Result{Bytes: opts.Size}

	fail := func(err error) *Result {
		result.Error = err
		result.ErrorDetail = classifyError(err)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	want, err := payload.Random(opts.Size)
	if err != nil {
		return fail(err)
	}

	l, err := Bind(ctx, ListenOptions{Address: "127.0.0.1:0"})
	if err != nil {
		return fail(err)
	}
	defer l.Close()

	dest := l.Addr()
	result.Address = dest.String()

	s, err := udp.NewWithContext(ctx, dest.Addr().String(), int(dest.Port()), opts.Sender)
	if err != nil {
		return fail(err)
	}
	defer s.Close()

	deadline, _ := ctx.Deadline()
	start := time.Now()
	s.Send(want)

	for {
		event, err := l.read(deadline)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				err = context.DeadlineExceeded
			}
			return fail(err)
		}
		if bytes.Equal(event.Payload, want) {
			result.RTT = time.Since(start)
			result.Success = true
			return result
		}
	}
}

// classifyError returns a human-readable description for common errors.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, udp.ErrInvalidOption):
		return "Sender rejected a socket option - check ttl and tos"
	case errors.Is(err, udp.ErrSocketOpen):
		return "Could not open a UDP socket - check local permissions"
	case errors.Is(err, context.DeadlineExceeded):
		return "Datagram not received before timeout - local firewall may be dropping UDP"
	default:
		return fmt.Sprintf("Probe failed - %v", err)
	}
}
