//go:build !unix && !windows

package udp

import "errors"

func setsockoptBroadcast(fd uintptr, enabled bool) error {
	if enabled {
		return errors.ErrUnsupported
	}
	return nil
}

func getsockoptBroadcast(fd uintptr) (bool, error) {
	return false, errors.ErrUnsupported
}
