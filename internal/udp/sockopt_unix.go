//go:build unix

package udp

import "golang.org/x/sys/unix"

func setsockoptBroadcast(fd uintptr, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, v)
}

func getsockoptBroadcast(fd uintptr) (bool, error) {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
