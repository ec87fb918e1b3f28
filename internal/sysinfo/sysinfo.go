// Package sysinfo reports build information and the local IPv4 interfaces
// a sender can reach, including their directed broadcast addresses.
package sysinfo

import (
	"net"
	"net/netip"
	"os"
	"runtime"
	"runtime/debug"
)

// Version is the udpfaf version, set at build time via ldflags.
// Example: go build -ldflags="-X github.com/postalsys/udpfaf/internal/sysinfo.Version=1.0.0"
var Version = "dev"

// Info describes the running binary and host.
type Info struct {
	Version   string
	GoVersion string
	OS        string
	Arch      string
	Hostname  string
}

// Interface is one IPv4 address assigned to a local interface.
type Interface struct {
	Name   string
	Prefix netip.Prefix
	// Broadcast is the directed broadcast address of Prefix. It is invalid
	// for interfaces without broadcast support and for /31 and /32 prefixes.
	Broadcast netip.Addr
	Up        bool
	Loopback  bool
}

// Collect gathers build and host information.
func Collect() Info {
	hostname, _ := os.Hostname()

	bi, ok := debug.ReadBuildInfo()
	var settings []debug.BuildSetting
	if ok {
		settings = bi.Settings
	}

	return Info{
		Version:   resolveVersion(Version, settings),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
	}
}

// resolveVersion turns a plain "dev" version into dev-<commit> using VCS
// build settings when they are available.
func resolveVersion(version string, settings []debug.BuildSetting) string {
	if version != "dev" {
		return version
	}

	var revision string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}

	version = "dev-" + revision
	if modified {
		version += "-dirty"
	}
	return version
}

// Interfaces lists IPv4 addresses on local interfaces.
func Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []Interface
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipNet.IP.To4())
			if !ok {
				continue
			}
			ones, bits := ipNet.Mask.Size()
			if bits != 32 {
				continue
			}

			entry := Interface{
				Name:     iface.Name,
				Prefix:   netip.PrefixFrom(ip, ones),
				Up:       iface.Flags&net.FlagUp != 0,
				Loopback: iface.Flags&net.FlagLoopback != 0,
			}
			if iface.Flags&net.FlagBroadcast != 0 {
				entry.Broadcast = BroadcastAddr(entry.Prefix)
			}
			out = append(out, entry)
		}
	}

	return out, nil
}

// BroadcastAddr returns the directed broadcast address of an IPv4 prefix,
// or the zero Addr when the prefix has no broadcast address.
func BroadcastAddr(p netip.Prefix) netip.Addr {
	if !p.Addr().Is4() || p.Bits() < 0 || p.Bits() > 30 {
		return netip.Addr{}
	}

	a := p.Addr().As4()
	host := uint32(1)<<(32-p.Bits()) - 1
	v := uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
	v |= host

	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
