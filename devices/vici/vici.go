// Package vici drives VICI/Valco rotary valve actuators over a shared
// serial bus.
//
// The actuator speaks a terse ASCII protocol: GO<n> moves to position n,
// CP queries the current position and replies CP<n>. Several actuators can
// share one RS-232/485 line when each carries a one-character ID prefix.
// A GO command is not acknowledged on its own, so a position write is
// confirmed by reading the position back before it counts as applied.
package vici

import (
	"context"
	"fmt"
	"strings"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/transport"
	"github.com/finchlabs/labflow/valve"
)

// Valve is one VICI actuator on a bus.
type Valve struct {
	info labflow.Info
	ctrl *valve.Controller
}

var _ labflow.Device = (*Valve)(nil)

// Info implements labflow.Device.
func (v *Valve) Info() labflow.Info {
	return v.info
}

// Controller implements labflow.Device.
func (v *Valve) Controller() *valve.Controller {
	return v.ctrl
}

// NewSelector builds a multiposition selector valve: ports 1..n around the
// stator, the common center port numbered n+1, one addressable position per
// port.
func NewSelector(name string, bus *transport.Bus, ports int, addr string, opts ...valve.ControllerOption) (*Valve, error) {
	if ports < 2 || ports > 16 {
		return nil, fmt.Errorf("%w: selector with %d ports", valve.ErrInvalidTopology, ports)
	}

	rotor := valve.Face{Radial: make([]valve.Port, ports), Center: valve.P(1)}
	stator := valve.Face{Radial: make([]valve.Port, ports), Center: valve.P(uint8(ports + 1))}
	rotor.Radial[0] = valve.P(1)
	for i := 0; i < ports; i++ {
		stator.Radial[i] = valve.P(uint8(i + 1))
	}

	return build(name, "multiposition selector", bus, addr, rotor, stator, opts...)
}

// NewInjector builds the 6-port, 2-position injection valve: three grooves
// joining adjacent stator ports.
func NewInjector(name string, bus *transport.Bus, addr string, opts ...valve.ControllerOption) (*Valve, error) {
	rotor := valve.Face{Radial: valve.Ports(1, 1, 2, 2, 3, 3)}
	stator := valve.Face{Radial: valve.Ports(1, 2, 3, 4, 5, 6)}
	return build(name, "injection valve", bus, addr, rotor, stator, opts...)
}

// NewFromTopology builds a valve for a custom head, e.g. one loaded from a
// device profile.
func NewFromTopology(name, model string, bus *transport.Bus, addr string, topo valve.Topology, opts ...valve.ControllerOption) (*Valve, error) {
	graph := valve.NewGraph(topo)
	return assemble(name, model, bus, addr, graph, opts...)
}

func build(name, model string, bus *transport.Bus, addr string, rotor, stator valve.Face, opts ...valve.ControllerOption) (*Valve, error) {
	topo, err := valve.NewTopology(rotor, stator)
	if err != nil {
		return nil, err
	}
	return assemble(name, model, bus, addr, valve.NewGraph(topo), opts...)
}

func assemble(name, model string, bus *transport.Bus, addr string, graph *valve.Graph, opts ...valve.ControllerOption) (*Valve, error) {
	tr := &busTransport{bus: bus, addr: addr}
	adapter := valve.NumericAdapter{Count: graph.Positions(), Base: 1}
	ctrl, err := valve.NewController(graph, adapter, tr, opts...)
	if err != nil {
		return nil, err
	}
	return &Valve{
		info: labflow.NewInfo(name, "VICI", model, "", addr),
		ctrl: ctrl,
	}, nil
}

// busTransport frames VICI commands on the shared bus.
type busTransport struct {
	bus  *transport.Bus
	addr string
}

var _ valve.Transport = (*busTransport)(nil)

func (t *busTransport) ReadRawPosition(ctx context.Context) (valve.RawCode, error) {
	reply, err := t.bus.RoundTrip(ctx, []byte(t.addr+"CP\r"))
	if err != nil {
		return "", err
	}
	code := strings.TrimPrefix(strings.TrimSpace(string(reply)), "CP")
	if code == "" {
		return "", fmt.Errorf("malformed position reply %q", reply)
	}
	return valve.RawCode(code), nil
}

func (t *busTransport) WriteRawPosition(ctx context.Context, code valve.RawCode) error {
	if err := t.bus.Send(ctx, []byte(t.addr+"GO"+string(code)+"\r")); err != nil {
		return err
	}
	// GO alone is silent; confirm by reading the position back.
	got, err := t.ReadRawPosition(ctx)
	if err != nil {
		return fmt.Errorf("confirming position: %w", err)
	}
	if got != code {
		return fmt.Errorf("valve reports position %s after GO%s", got, code)
	}
	return nil
}
