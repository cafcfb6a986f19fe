package transport

import (
	"bytes"
	"context"
	"sync"
)

// Bus wraps one physical connection shared by every logical device
// daisy-chained on it. The mutex is scoped to exactly one request/reply
// round-trip: no two commands on the same line can interleave, and a second
// caller blocks until the first round-trip completes. This is an ordering
// guarantee, not a performance one; command latency is milliseconds.
type Bus struct {
	mu     sync.Mutex
	conn   Conn
	config busConfig
	closed bool
}

type busConfig struct {
	terminator byte
	maxReply   int
	retries    int
}

// BusOption is a functional option for configuring a Bus
type BusOption func(*busConfig)

// WithTerminator sets the byte that ends an instrument reply (default '\r')
func WithTerminator(b byte) BusOption {
	return func(c *busConfig) {
		c.terminator = b
	}
}

// WithMaxReply sets the maximum accepted reply length (default 256)
func WithMaxReply(n int) BusOption {
	return func(c *busConfig) {
		c.maxReply = n
	}
}

// WithEmptyRetry repeats a round-trip up to n extra times when the device
// returns nothing before the read timeout. Some instruments drop the first
// request after power-up; retry policy lives here, never in the callers.
func WithEmptyRetry(n int) BusOption {
	return func(c *busConfig) {
		c.retries = n
	}
}

// NewBus wraps a connection in a round-trip-locked bus handle.
func NewBus(conn Conn, opts ...BusOption) *Bus {
	config := busConfig{terminator: '\r', maxReply: 256}
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{conn: conn, config: config}
}

// RoundTrip sends one command and reads one terminated reply, holding the
// bus lock for the whole exchange. The returned reply excludes the
// terminator.
func (b *Bus) RoundTrip(ctx context.Context, cmd []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	tries := b.config.retries + 1
	var reply []byte
	for attempt := 0; attempt < tries; attempt++ {
		if err := b.writeAll(ctx, cmd); err != nil {
			return nil, err
		}
		var err error
		reply, err = b.readReply(ctx)
		if err == nil {
			return reply, nil
		}
		if err != ErrNoReply || attempt == tries-1 {
			return nil, err
		}
		// Empty reply: drop any half-received garbage before retrying.
		_ = b.conn.FlushInput()
	}
	return nil, ErrNoReply
}

// Send writes one command without expecting a reply, holding the bus lock
// for the write.
func (b *Bus) Send(ctx context.Context, cmd []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	return b.writeAll(ctx, cmd)
}

// Close closes the bus and its underlying connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.closed = true
	return b.conn.Close()
}

func (b *Bus) writeAll(ctx context.Context, data []byte) error {
	for len(data) > 0 {
		n, err := b.conn.WriteContext(ctx, data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// readReply accumulates bytes until the terminator. A read returning zero
// bytes means the line-level timeout expired; with nothing accumulated that
// is ErrNoReply, otherwise a truncated reply surfaces as ErrReadTimeout.
func (b *Bus) readReply(ctx context.Context) ([]byte, error) {
	var reply []byte
	buf := make([]byte, 64)

	for {
		n, err := b.conn.ReadContext(ctx, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			if len(reply) == 0 {
				return nil, ErrNoReply
			}
			return nil, ErrReadTimeout
		}
		reply = append(reply, buf[:n]...)
		if i := bytes.IndexByte(reply, b.config.terminator); i >= 0 {
			return reply[:i], nil
		}
		if len(reply) > b.config.maxReply {
			return nil, ErrReplyTooLong
		}
	}
}

// Opener opens a byte-level connection for a device path. The default uses
// the serial implementation in this package; tests inject in-memory conns.
type Opener func(device string, opts ...Option) (Conn, error)

// Registry hands out exactly one shared Bus per physical port so that every
// logical device daisy-chained on a line goes through the same round-trip
// lock. The first caller for a path opens the connection; later callers get
// the same handle regardless of the options they pass.
type Registry struct {
	mu    sync.Mutex
	open  Opener
	buses map[string]*Bus
}

// RegistryOption is a functional option for configuring a Registry
type RegistryOption func(*Registry)

// WithOpener replaces the connection opener, used to back buses with
// in-memory conns in tests.
func WithOpener(open Opener) RegistryOption {
	return func(r *Registry) {
		r.open = open
	}
}

// NewRegistry creates an empty bus registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		open:  Open,
		buses: make(map[string]*Bus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bus returns the shared bus for a device path, opening it on first use.
func (r *Registry) Bus(device string, connOpts []Option, busOpts ...BusOption) (*Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bus, ok := r.buses[device]; ok {
		return bus, nil
	}
	conn, err := r.open(device, connOpts...)
	if err != nil {
		return nil, err
	}
	bus := NewBus(conn, busOpts...)
	r.buses[device] = bus
	return bus, nil
}

// CloseAll closes every open bus. The registry can be reused afterwards.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for device, bus := range r.buses {
		if err := bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.buses, device)
	}
	return firstErr
}
