package valve

import (
	"context"
	"log/slog"
	"sync"
)

// Transport is the byte-level collaborator a controller drives. Both
// operations cover exactly one request/reply round-trip on the physical bus;
// implementations own the bus lock, the wire protocol, and any retry policy.
// The controller only distinguishes acknowledged from not acknowledged.
type Transport interface {
	ReadRawPosition(ctx context.Context) (RawCode, error)
	WriteRawPosition(ctx context.Context, code RawCode) error
}

// Controller is the stateful façade over one physical valve. It owns the
// cached current position and orchestrates resolve -> translate ->
// hardware-write -> cache-update.
//
// The cache always reflects the last positively-confirmed hardware state: it
// is advanced only after an acknowledged read or write, never speculatively.
// A failed or cancelled operation leaves it untouched and any retry is a
// fresh call.
type Controller struct {
	graph   *Graph
	adapter Adapter
	tr      Transport
	log     *slog.Logger

	mu      sync.Mutex
	current Position
}

// ControllerOption is a functional option for configuring a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger. The default discards everything.
func WithLogger(log *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController builds a controller over a connection graph, a vendor
// adapter, and a transport. The adapter is verified once to be a total
// bijection over the graph's key domain; a misconfigured adapter fails here
// rather than at the first switch.
func NewController(graph *Graph, adapter Adapter, tr Transport, opts ...ControllerOption) (*Controller, error) {
	if err := checkAdapter(adapter, graph.Positions()); err != nil {
		return nil, err
	}
	c := &Controller{
		graph:   graph,
		adapter: adapter,
		tr:      tr,
		log:     slog.New(slog.DiscardHandler),
		current: PositionUnknown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Graph returns the controller's connection graph.
func (c *Controller) Graph() *Graph {
	return c.graph
}

// Current returns the cached position without touching the hardware.
// ok is false before the first confirmed read or write.
func (c *Controller) Current() (Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == PositionUnknown {
		return PositionUnknown, false
	}
	return c.current, true
}

// Position reads the raw hardware position, maps it through the adapter,
// updates the cache, and returns the connection set for that position. On
// transport failure the cache is left unchanged.
func (c *Controller) Position(ctx context.Context) (ConnectionSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, err := c.tr.ReadRawPosition(ctx)
	if err != nil {
		c.log.Warn("position read failed", "err", err)
		return nil, &CommError{Op: "read raw position", Err: err}
	}
	key, err := c.adapter.FromRaw(code)
	if err != nil {
		return nil, err
	}
	cs, err := c.graph.State(key)
	if err != nil {
		return nil, err
	}
	c.current = key
	c.log.Debug("position read", "raw", string(code), "key", int(key))
	return cs, nil
}

// SetPosition resolves the requested connections to a position key, writes
// the translated raw code to the hardware, and updates the cache only after
// the write is acknowledged.
//
// Resolution failures surface without touching the transport or the cache.
// Write failures, including context cancellation while the write is in
// flight, leave the cache at its prior value; the write must not be assumed
// applied.
func (c *Controller) SetPosition(ctx context.Context, connect, avoid []Pair, allowAmbiguous bool) error {
	key, err := c.graph.Resolve(connect, avoid, allowAmbiguous)
	if err != nil {
		return err
	}
	return c.SwitchTo(ctx, key)
}

// SwitchTo moves the valve directly to a known position key.
func (c *Controller) SwitchTo(ctx context.Context, key Position) error {
	code, err := c.adapter.ToRaw(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tr.WriteRawPosition(ctx, code); err != nil {
		c.log.Warn("position write failed", "key", int(key), "err", err)
		return &CommError{Op: "write raw position", Err: err}
	}
	c.current = key
	c.log.Debug("position set", "raw", string(code), "key", int(key))
	return nil
}
