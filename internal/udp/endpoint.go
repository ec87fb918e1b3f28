package udp

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

var (
	// ErrAddressParse is returned when the destination is not a numeric IPv4 literal.
	ErrAddressParse = errors.New("invalid IPv4 address")

	// ErrInvalidPort is returned when the destination port is outside 0-65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrSocketOpen is returned when the socket cannot be opened or configured.
	ErrSocketOpen = errors.New("cannot open UDP socket")

	// ErrInvalidOption is returned for out-of-range Config values.
	ErrInvalidOption = errors.New("invalid sender option")
)

// ParseEndpoint builds a destination from a dotted-decimal IPv4 literal and
// a port. Hostnames are not resolved, and IPv6 or IPv4-mapped IPv6 literals
// are rejected.
func ParseEndpoint(address string, port int) (netip.AddrPort, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w %q: %w", ErrAddressParse, address, err)
	}
	if !addr.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w %q: not an IPv4 literal", ErrAddressParse, address)
	}
	if port < 0 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("%w %d: must be 0-65535", ErrInvalidPort, port)
	}
	return netip.AddrPortFrom(addr, uint16(port)), nil
}

// ParseDestination parses "ip:port" with the same rules as ParseEndpoint.
func ParseDestination(s string) (netip.AddrPort, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w %q: %w", ErrAddressParse, s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w %q: %w", ErrInvalidPort, portStr, err)
	}
	return ParseEndpoint(host, port)
}
