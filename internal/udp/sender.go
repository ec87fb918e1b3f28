package udp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/metrics"
)

// Sender transmits datagrams to one fixed IPv4 destination without waiting
// for, or reporting, delivery.
type Sender struct {
	conn      *net.UDPConn
	dest      netip.AddrPort
	broadcast bool

	logger  *slog.Logger
	metrics *metrics.Metrics

	closeOnce sync.Once
	closeErr  error
}

// New opens a sender for address:port. address must be a dotted-decimal
// IPv4 literal.
func New(address string, port int, cfg Config) (*Sender, error) {
	return NewWithContext(context.Background(), address, port, cfg)
}

// NewWithContext is New with a context bounding socket creation.
func NewWithContext(ctx context.Context, address string, port int, cfg Config) (*Sender, error) {
	// Everything that can be checked without a socket is checked first,
	// so a rejected destination never opens one.
	dest, err := ParseEndpoint(address, port)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	lc := net.ListenConfig{Control: broadcastControl(cfg.Broadcast)}
	pc, err := lc.ListenPacket(ctx, "udp4", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketOpen, err)
	}
	conn := pc.(*net.UDPConn)

	if err := applyIPOptions(conn, dest.Addr(), cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrSocketOpen, err)
	}

	s := &Sender{
		conn:      conn,
		dest:      dest,
		broadcast: cfg.Broadcast,
		metrics:   cfg.Metrics,
	}
	s.logger = logger.With(
		slog.String(logging.KeyComponent, "udp"),
		slog.String(logging.KeyLocalAddr, s.LocalAddr().String()),
		slog.String(logging.KeyRemoteAddr, dest.String()),
	)

	s.metrics.RecordSenderOpen()
	s.logger.Debug("UDP sender opened", slog.Bool(logging.KeyBroadcast, cfg.Broadcast))

	return s, nil
}

// Broadcast opens a sender with SO_BROADCAST enabled.
func Broadcast(address string, port int) (*Sender, error) {
	cfg := DefaultConfig()
	cfg.Broadcast = true
	return New(address, port, cfg)
}

// SendOnce opens a sender, transmits payload once and closes it.
// Only construction errors are returned.
func SendOnce(address string, port int, payload []byte, cfg Config) error {
	s, err := New(address, port, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	s.Send(payload)
	return nil
}

// applyIPOptions sets TTL and TOS when the config asks for non-default values.
func applyIPOptions(conn *net.UDPConn, dest netip.Addr, cfg Config) error {
	if cfg.TTL == 0 && cfg.TOS == 0 {
		return nil
	}

	// Closing p would close conn, so it is left to be collected.
	p := ipv4.NewPacketConn(conn)

	if cfg.TTL > 0 {
		if dest.IsMulticast() {
			if err := p.SetMulticastTTL(cfg.TTL); err != nil {
				return fmt.Errorf("set multicast ttl: %w", err)
			}
		} else {
			if err := p.SetTTL(cfg.TTL); err != nil {
				return fmt.Errorf("set ttl: %w", err)
			}
		}
	}
	if cfg.TOS > 0 {
		if err := p.SetTOS(cfg.TOS); err != nil {
			return fmt.Errorf("set tos: %w", err)
		}
	}
	return nil
}

// Send transmits data as one datagram. It never reports failure.
func (s *Sender) Send(data []byte) {
	s.sendTo(data)
}

// SendString transmits the bytes of text as one datagram. It never reports
// failure.
func (s *Sender) SendString(text string) {
	s.sendTo([]byte(text))
}

// Write implements io.Writer. Each call is one datagram, and the result is
// always len(p), nil.
func (s *Sender) Write(p []byte) (int, error) {
	s.sendTo(p)
	return len(p), nil
}

func (s *Sender) sendTo(payload []byte) {
	n, err := s.conn.WriteToUDPAddrPort(payload, s.dest)
	if err != nil {
		// Dropped here. Send has no failure path.
		s.metrics.RecordDiscardedError()
		return
	}
	s.metrics.RecordSend(n)
}

// Destination returns the fixed remote endpoint.
func (s *Sender) Destination() netip.AddrPort {
	return s.dest
}

// LocalAddr returns the ephemeral local endpoint the platform assigned.
func (s *Sender) LocalAddr() netip.AddrPort {
	addr, ok := s.conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.AddrPort{}
	}
	ap := addr.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// BroadcastEnabled reports whether the sender was opened with SO_BROADCAST.
func (s *Sender) BroadcastEnabled() bool {
	return s.broadcast
}

// Close releases the socket. Calling Close more than once is safe; later
// calls return the first result.
func (s *Sender) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		s.metrics.RecordSenderClose()
		s.logger.Debug("UDP sender closed")
	})
	return s.closeErr
}
