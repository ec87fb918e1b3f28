package payload

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize parses a human-readable size string to bytes.
// Supported formats:
//   - Decimal units: 100B, 10KB, 64KB (1KB = 1000 bytes)
//   - Binary units: 10KiB, 63KiB (1KiB = 1024 bytes)
//   - Plain number: 1024 (interpreted as bytes)
func ParseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size format '%s': %w", s, err)
	}
	if bytes > MaxIPv4Payload {
		return 0, fmt.Errorf("size %s exceeds the %d byte IPv4 payload limit", s, MaxIPv4Payload)
	}

	return int(bytes), nil
}

// FormatSize formats bytes as a human-readable size string using IEC
// binary units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}
