package udp

import (
	"fmt"
	"log/slog"

	"github.com/postalsys/udpfaf/internal/metrics"
)

// Config holds optional settings for a Sender.
type Config struct {
	// Broadcast controls SO_BROADCAST on the socket.
	// When false the option is explicitly cleared, so sending to a
	// broadcast address is left to the platform to reject.
	Broadcast bool

	// TTL is the IP time-to-live for outgoing datagrams.
	// 0 keeps the platform default. For multicast destinations the
	// multicast TTL is set instead.
	TTL int

	// TOS is the IPv4 type-of-service byte.
	// 0 keeps the platform default.
	TOS int

	// Logger receives construction and close events at debug level.
	// nil discards them. Send never logs.
	Logger *slog.Logger

	// Metrics receives send counters. nil disables them.
	Metrics *metrics.Metrics
}

// DefaultConfig returns a Config with broadcast disabled and platform
// defaults for TTL and TOS.
func DefaultConfig() Config {
	return Config{}
}

// Validate checks that the numeric options fit their IPv4 header fields.
func (c *Config) Validate() error {
	if c.TTL < 0 || c.TTL > 255 {
		return fmt.Errorf("%w: ttl %d (must be 0-255)", ErrInvalidOption, c.TTL)
	}
	if c.TOS < 0 || c.TOS > 255 {
		return fmt.Errorf("%w: tos %d (must be 0-255)", ErrInvalidOption, c.TOS)
	}
	return nil
}
