package transport

import (
	"bytes"
	"context"
	"sync"
	"testing"
)

// memConn is an in-memory Conn scripted by a handler that maps each written
// command to a reply. A nil reply simulates a silent device: reads return
// zero bytes, like a serial line after VTIME expires.
type memConn struct {
	mu      sync.Mutex
	handler func(cmd []byte) []byte
	pending []byte
	writes  [][]byte
	closed  bool
	busy    bool
	overlap bool
}

func newMemConn(handler func(cmd []byte) []byte) *memConn {
	return &memConn{handler: handler}
}

func (m *memConn) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrPortClosed
	}
	if m.busy {
		// A second command arrived before the previous reply was
		// consumed: the round-trip lock has been violated.
		m.overlap = true
	}
	m.busy = true

	cmd := append([]byte(nil), data...)
	m.writes = append(m.writes, cmd)
	if reply := m.handler(cmd); reply != nil {
		m.pending = append(m.pending, reply...)
	}
	return len(data), nil
}

func (m *memConn) Read(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrPortClosed
	}
	if len(m.pending) == 0 {
		m.busy = false
		return 0, nil
	}
	n := copy(buf, m.pending)
	m.pending = m.pending[n:]
	if len(m.pending) == 0 {
		m.busy = false
	}
	return n, nil
}

func (m *memConn) WriteContext(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Write(data)
}

func (m *memConn) ReadContext(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Read(buf)
}

func (m *memConn) FlushInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	return nil
}

func (m *memConn) FlushOutput() error { return nil }

func (m *memConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestBusRoundTrip(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte {
		if bytes.Equal(cmd, []byte("CP\r")) {
			return []byte("3\r")
		}
		return []byte("?\r")
	})
	bus := NewBus(conn)

	reply, err := bus.RoundTrip(context.Background(), []byte("CP\r"))
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if string(reply) != "3" {
		t.Errorf("Expected reply %q, got %q", "3", reply)
	}
}

func TestBusCustomTerminator(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte {
		return []byte("pos=2\n")
	})
	bus := NewBus(conn, WithTerminator('\n'))

	reply, err := bus.RoundTrip(context.Background(), []byte("status\n"))
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if string(reply) != "pos=2" {
		t.Errorf("Expected reply %q, got %q", "pos=2", reply)
	}
}

func TestBusNoReply(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte { return nil })
	bus := NewBus(conn)

	_, err := bus.RoundTrip(context.Background(), []byte("CP\r"))
	if err != ErrNoReply {
		t.Errorf("Expected ErrNoReply, got %v", err)
	}
	if len(conn.writes) != 1 {
		t.Errorf("Expected 1 write without retries, got %d", len(conn.writes))
	}
}

func TestBusEmptyRetry(t *testing.T) {
	calls := 0
	conn := newMemConn(func(cmd []byte) []byte {
		calls++
		if calls < 3 {
			return nil // device swallows the first two requests
		}
		return []byte("OK\r")
	})
	bus := NewBus(conn, WithEmptyRetry(2))

	reply, err := bus.RoundTrip(context.Background(), []byte("GO5\r"))
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if string(reply) != "OK" {
		t.Errorf("Expected reply %q, got %q", "OK", reply)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestBusReplyTooLong(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte {
		return bytes.Repeat([]byte("x"), 64) // no terminator
	})
	bus := NewBus(conn, WithMaxReply(32))

	_, err := bus.RoundTrip(context.Background(), []byte("?\r"))
	if err != ErrReplyTooLong {
		t.Errorf("Expected ErrReplyTooLong, got %v", err)
	}
}

func TestBusSend(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte { return nil })
	bus := NewBus(conn)

	if err := bus.Send(context.Background(), []byte("HM\r")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.writes) != 1 || string(conn.writes[0]) != "HM\r" {
		t.Errorf("Unexpected writes: %q", conn.writes)
	}
}

func TestBusClosed(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte { return []byte("1\r") })
	bus := NewBus(conn)

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := bus.RoundTrip(context.Background(), []byte("CP\r")); err != ErrBusClosed {
		t.Errorf("Expected ErrBusClosed, got %v", err)
	}
	if err := bus.Close(); err != ErrBusClosed {
		t.Errorf("Expected ErrBusClosed on double close, got %v", err)
	}
}

func TestBusCancelledContext(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte { return []byte("1\r") })
	bus := NewBus(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := bus.RoundTrip(ctx, []byte("CP\r")); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBusSerializesRoundTrips(t *testing.T) {
	conn := newMemConn(func(cmd []byte) []byte { return []byte("ack\r") })
	bus := NewBus(conn)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := bus.RoundTrip(context.Background(), []byte("GO1\r")); err != nil {
				t.Errorf("RoundTrip failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if conn.overlap {
		t.Error("Round-trips interleaved on the bus")
	}
	if len(conn.writes) != 16 {
		t.Errorf("Expected 16 writes, got %d", len(conn.writes))
	}
}

func TestRegistrySharesBuses(t *testing.T) {
	opened := 0
	reg := NewRegistry(WithOpener(func(device string, opts ...Option) (Conn, error) {
		opened++
		return newMemConn(func(cmd []byte) []byte { return []byte("1\r") }), nil
	}))

	a, err := reg.Bus("/dev/ttyUSB0", nil)
	if err != nil {
		t.Fatalf("Bus failed: %v", err)
	}
	b, err := reg.Bus("/dev/ttyUSB0", nil)
	if err != nil {
		t.Fatalf("Bus failed: %v", err)
	}
	c, err := reg.Bus("/dev/ttyUSB1", nil)
	if err != nil {
		t.Fatalf("Bus failed: %v", err)
	}

	if a != b {
		t.Error("Same path must return the same bus handle")
	}
	if a == c {
		t.Error("Different paths must return different bus handles")
	}
	if opened != 2 {
		t.Errorf("Expected 2 opens, got %d", opened)
	}

	if err := reg.CloseAll(); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if _, err := a.RoundTrip(context.Background(), []byte("CP\r")); err != ErrBusClosed {
		t.Errorf("Expected ErrBusClosed after CloseAll, got %v", err)
	}
}
