package sysinfo

import (
	"net/netip"
	"runtime"
	"runtime/debug"
	"testing"
)

func TestCollect(t *testing.T) {
	info := Collect()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", info.OS, info.Arch)
	}
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		settings []debug.BuildSetting
		want     string
	}{
		{"release kept", "v1.2.0", []debug.BuildSetting{{Key: "vcs.revision", Value: "abcdef0123"}}, "v1.2.0"},
		{"no vcs info", "dev", nil, "dev"},
		{"revision", "dev", []debug.BuildSetting{{Key: "vcs.revision", Value: "abcdef0123"}}, "dev-abcdef0"},
		{"dirty", "dev", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		}, "dev-abcdef0-dirty"},
		{"short revision", "dev", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "dev-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveVersion(tt.version, tt.settings); got != tt.want {
				t.Errorf("resolveVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBroadcastAddr(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"192.168.1.44/24", "192.168.1.255"},
		{"10.0.0.1/8", "10.255.255.255"},
		{"172.16.5.4/20", "172.16.15.255"},
		{"192.168.1.1/30", "192.168.1.3"},
		{"0.0.0.0/0", "255.255.255.255"},
		{"192.168.1.1/31", "invalid IP"},
		{"192.168.1.1/32", "invalid IP"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := BroadcastAddr(netip.MustParsePrefix(tt.prefix))
			if got.String() != tt.want {
				t.Errorf("BroadcastAddr(%s) = %s, want %s", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestBroadcastAddr_IPv6(t *testing.T) {
	if got := BroadcastAddr(netip.MustParsePrefix("fe80::1/64")); got.IsValid() {
		t.Errorf("BroadcastAddr(IPv6) = %s, want invalid", got)
	}
}

func TestInterfaces(t *testing.T) {
	ifaces, err := Interfaces()
	if err != nil {
		t.Fatalf("Interfaces() error = %v", err)
	}

	for _, iface := range ifaces {
		if !iface.Prefix.Addr().Is4() {
			t.Errorf("%s: non-IPv4 prefix %s", iface.Name, iface.Prefix)
		}
		if iface.Loopback && iface.Broadcast.IsValid() {
			t.Errorf("%s: loopback should have no broadcast address", iface.Name)
		}
	}
}
