package udp

import (
	"net"
	"os"
	"syscall"
)

// broadcastControl returns a net.ListenConfig control hook that writes
// SO_BROADCAST before the socket is bound. The Go runtime turns the option
// on for every datagram socket, so false is written explicitly too.
func broadcastControl(enabled bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		return setBroadcast(c, enabled)
	}
}

func setBroadcast(c syscall.RawConn, enabled bool) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = setsockoptBroadcast(fd, enabled)
	}); err != nil {
		return err
	}
	if sockErr != nil {
		return os.NewSyscallError("setsockopt", sockErr)
	}
	return nil
}

// broadcastOption reads SO_BROADCAST back from an open socket.
func broadcastOption(conn *net.UDPConn) (bool, error) {
	c, err := conn.SyscallConn()
	if err != nil {
		return false, err
	}

	var (
		enabled bool
		sockErr error
	)
	if err := c.Control(func(fd uintptr) {
		enabled, sockErr = getsockoptBroadcast(fd)
	}); err != nil {
		return false, err
	}
	if sockErr != nil {
		return false, os.NewSyscallError("getsockopt", sockErr)
	}
	return enabled, nil
}
