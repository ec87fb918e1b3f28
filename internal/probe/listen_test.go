package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/postalsys/udpfaf/internal/metrics"
	"github.com/postalsys/udpfaf/internal/udp"
)

// serve runs l.Serve in the background and returns a channel with its result.
func serve(ctx context.Context, l *Listener, events chan<- DatagramEvent) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, events)
	}()
	return done
}

func waitEvent(t *testing.T, events <-chan DatagramEvent) DatagramEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for datagram event")
		return DatagramEvent{}
	}
}

func TestBind_Defaults(t *testing.T) {
	l, err := Bind(context.Background(), ListenOptions{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	addr := l.Addr()
	if !addr.Addr().IsLoopback() {
		t.Errorf("Addr() = %s, want loopback", addr)
	}
	if addr.Port() == 0 {
		t.Error("Addr() port should be assigned")
	}
	if len(l.buf) != DefaultMaxDatagramSize {
		t.Errorf("buffer size = %d, want %d", len(l.buf), DefaultMaxDatagramSize)
	}
}

func TestBind_InvalidAddress(t *testing.T) {
	if _, err := Bind(context.Background(), ListenOptions{Address: "not-an-address"}); err == nil {
		t.Error("Bind() should fail for an invalid address")
	}
}

func TestListener_ReceivesFromSender(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry(reg)

	l, err := Bind(context.Background(), ListenOptions{Metrics: m})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan DatagramEvent, 4)
	done := serve(ctx, l, events)

	s, err := udp.New("127.0.0.1", int(l.Addr().Port()), udp.DefaultConfig())
	if err != nil {
		t.Fatalf("udp.New() error = %v", err)
	}
	defer s.Close()

	s.SendString("The message!")
	s.Send([]byte{0x00, 0x01, 0x02})

	first := waitEvent(t, events)
	if string(first.Payload) != "The message!" || first.Size != 12 {
		t.Errorf("first event = %+v", first)
	}
	wantFrom := fmt.Sprintf("127.0.0.1:%d", s.LocalAddr().Port())
	if first.RemoteAddr != wantFrom {
		t.Errorf("RemoteAddr = %s, want %s", first.RemoteAddr, wantFrom)
	}
	if first.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	second := waitEvent(t, events)
	if second.Size != 3 || second.Payload[2] != 0x02 {
		t.Errorf("second event = %+v", second)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}

	if got := testutil.ToFloat64(m.DatagramsReceived); got != 2 {
		t.Errorf("DatagramsReceived = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BytesReceived); got != 15 {
		t.Errorf("BytesReceived = %v, want 15", got)
	}
}

func TestListener_PayloadNotAliased(t *testing.T) {
	l, err := Bind(context.Background(), ListenOptions{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	s, err := udp.New("127.0.0.1", int(l.Addr().Port()), udp.DefaultConfig())
	if err != nil {
		t.Fatalf("udp.New() error = %v", err)
	}
	defer s.Close()

	s.SendString("aaaa")
	s.SendString("bbbb")

	deadline := time.Now().Add(2 * time.Second)
	first, err := l.read(deadline)
	if err != nil {
		t.Fatalf("read() error = %v", err)
	}
	if _, err := l.read(deadline); err != nil {
		t.Fatalf("read() error = %v", err)
	}

	if string(first.Payload) != "aaaa" {
		t.Errorf("first payload overwritten: %q", first.Payload)
	}
}

func TestListener_Truncates(t *testing.T) {
	l, err := Bind(context.Background(), ListenOptions{MaxDatagramSize: 4})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	s, err := udp.New("127.0.0.1", int(l.Addr().Port()), udp.DefaultConfig())
	if err != nil {
		t.Fatalf("udp.New() error = %v", err)
	}
	defer s.Close()

	s.SendString("truncated")

	ev, err := l.read(time.Now().Add(2 * time.Second))
	if err != nil {
		t.Fatalf("read() error = %v", err)
	}
	if string(ev.Payload) != "trun" {
		t.Errorf("payload = %q, want trun", ev.Payload)
	}
}

func TestListener_CloseStopsServe(t *testing.T) {
	l, err := Bind(context.Background(), ListenOptions{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	done := serve(context.Background(), l, make(chan DatagramEvent))

	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil after Close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after Close")
	}
}

func TestListen_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Listen(ctx, ListenOptions{}, make(chan DatagramEvent))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Listen() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestListen_AddressInUse(t *testing.T) {
	l, err := Bind(context.Background(), ListenOptions{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	err = Listen(context.Background(), ListenOptions{Address: l.Addr().String()}, make(chan DatagramEvent))
	if err == nil {
		t.Fatal("Listen() should fail when the port is taken")
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("Listen() error = %v, want *net.OpError", err)
	}
}

func TestDatagramEvent_JSON(t *testing.T) {
	event := DatagramEvent{
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		RemoteAddr: "192.168.1.100:54321",
		Size:       2,
		Payload:    []byte("hi"),
	}

	out, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, want := range []string{`"remote_addr":"192.168.1.100:54321"`, `"size":2`, `"payload":"aGk="`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("JSON %s missing %s", out, want)
		}
	}
}
