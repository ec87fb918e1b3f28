package udp

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Broadcast {
		t.Error("Broadcast should default to false")
	}
	if cfg.TTL != 0 || cfg.TOS != 0 {
		t.Errorf("TTL/TOS = %d/%d, want platform defaults (0/0)", cfg.TTL, cfg.TOS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero", Config{}, false},
		{"ttl max", Config{TTL: 255}, false},
		{"tos max", Config{TOS: 255}, false},
		{"ttl negative", Config{TTL: -1}, true},
		{"ttl too large", Config{TTL: 256}, true},
		{"tos too large", Config{TOS: 300}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOption) {
				t.Errorf("error %v is not ErrInvalidOption", err)
			}
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		address string
		port    int
		want    string
		wantErr error
	}{
		{"loopback", "127.0.0.1", 8861, "127.0.0.1:8861", nil},
		{"private", "192.168.1.44", 8861, "192.168.1.44:8861", nil},
		{"broadcast", "255.255.255.255", 9, "255.255.255.255:9", nil},
		{"port zero", "10.0.0.1", 0, "10.0.0.1:0", nil},
		{"port max", "10.0.0.1", 65535, "10.0.0.1:65535", nil},
		{"out of range octets", "999.999.999.999", 80, "", ErrAddressParse},
		{"hostname", "not-an-ip", 80, "", ErrAddressParse},
		{"localhost is not resolved", "localhost", 80, "", ErrAddressParse},
		{"empty", "", 80, "", ErrAddressParse},
		{"ipv6", "::1", 80, "", ErrAddressParse},
		{"ipv4 mapped ipv6", "::ffff:127.0.0.1", 80, "", ErrAddressParse},
		{"trailing garbage", "127.0.0.1x", 80, "", ErrAddressParse},
		{"negative port", "127.0.0.1", -1, "", ErrInvalidPort},
		{"port too large", "127.0.0.1", 65536, "", ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.address, tt.port)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseEndpoint(%q, %d) error = %v, want %v", tt.address, tt.port, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q, %d) unexpected error: %v", tt.address, tt.port, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseEndpoint(%q, %d) = %s, want %s", tt.address, tt.port, got, tt.want)
			}
		})
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"192.168.1.44:8861", "192.168.1.44:8861", nil},
		{"127.0.0.1:0", "127.0.0.1:0", nil},
		{"192.168.1.44", "", ErrAddressParse},
		{"example.com:53", "", ErrAddressParse},
		{"[::1]:53", "", ErrAddressParse},
		{"10.0.0.1:http", "", ErrInvalidPort},
		{"10.0.0.1:70000", "", ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDestination(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDestination(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDestination(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDestination(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
