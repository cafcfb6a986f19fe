package transport

import (
	"context"
	"sync"
)

// Loopback is an in-memory Conn backed by a handler that maps each written
// command to a reply. It stands in for real hardware in driver tests and in
// demo rigs; a nil reply simulates a silent device, with reads returning
// zero bytes like a serial line after its timeout expires.
type Loopback struct {
	mu      sync.Mutex
	handler func(cmd []byte) []byte
	pending []byte
	closed  bool
}

var _ Conn = (*Loopback)(nil)

// NewLoopback creates a loopback connection with the given reply handler.
func NewLoopback(handler func(cmd []byte) []byte) *Loopback {
	return &Loopback{handler: handler}
}

func (l *Loopback) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrPortClosed
	}
	if reply := l.handler(append([]byte(nil), data...)); reply != nil {
		l.pending = append(l.pending, reply...)
	}
	return len(data), nil
}

func (l *Loopback) Read(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrPortClosed
	}
	if len(l.pending) == 0 {
		return 0, nil
	}
	n := copy(buf, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func (l *Loopback) WriteContext(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.Write(data)
}

func (l *Loopback) ReadContext(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.Read(buf)
}

func (l *Loopback) FlushInput() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	return nil
}

func (l *Loopback) FlushOutput() error { return nil }

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrPortClosed
	}
	l.closed = true
	return nil
}
