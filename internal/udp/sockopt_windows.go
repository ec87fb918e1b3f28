//go:build windows

package udp

import "golang.org/x/sys/windows"

func setsockoptBroadcast(fd uintptr, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, v)
}

func getsockoptBroadcast(fd uintptr) (bool, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
