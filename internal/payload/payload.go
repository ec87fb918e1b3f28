// Package payload builds datagram payloads from text, hex, files, streams
// and random data, and renders received payloads for display.
package payload

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxIPv4Payload is the largest UDP payload an IPv4 datagram can carry
// (65535 - 20 byte IP header - 8 byte UDP header).
const MaxIPv4Payload = 65507

// FromText returns the raw bytes of s.
func FromText(s string) []byte {
	return []byte(s)
}

// FromHex decodes a hex string. Whitespace and an optional 0x prefix are
// ignored, so "de ad be ef" and "0xdeadbeef" both decode.
func FromHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")

	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

// FromFile reads a whole file as one payload.
func FromFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	defer f.Close()

	return FromReader(f)
}

// FromReader reads r to EOF as one payload. Input longer than
// MaxIPv4Payload is rejected, since it could never fit in one datagram.
func FromReader(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxIPv4Payload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if len(b) > MaxIPv4Payload {
		return nil, fmt.Errorf("payload exceeds %s", FormatSize(MaxIPv4Payload))
	}
	return b, nil
}

// Random returns size bytes from crypto/rand.
func Random(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative payload size %d", size)
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate payload: %w", err)
	}
	return b, nil
}

// Lines calls fn once per line of r, without the line terminator.
// The slice passed to fn is reused between calls.
func Lines(r io.Reader, fn func(line []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxIPv4Payload)

	for scanner.Scan() {
		fn(scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read lines: %w", err)
	}
	return nil
}
