// Package hamilton drives Hamilton MVP-style valve positioners.
//
// MVP positioners daisy-chain on one RS-232 line, each answering to a
// single-letter address. Positions are addressed by letter: <addr>V<code>
// moves the valve, <addr>Q replies with the current position letter. The
// move command echoes the accepted position, which serves as the write
// acknowledgement.
package hamilton

import (
	"context"
	"fmt"
	"strings"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/transport"
	"github.com/finchlabs/labflow/valve"
)

// Valve is one MVP positioner on a bus.
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

// NewDistributor builds the 8-port distribution head: four grooves joining
// adjacent stator ports, letter position codes.
func NewDistributor(name string, bus *transport.Bus, addr string, opts ...valve.ControllerOption) (*Valve, error) {
	topo, err := valve.NewTopology(
		valve.Face{Radial: valve.Ports(1, 1, 2, 2, 3, 3, 4, 4)},
		valve.Face{Radial: valve.Ports(1, 2, 3, 4, 5, 6, 7, 8)},
	)
	if err != nil {
		return nil, err
	}
	return NewFromTopology(name, "MVP distributor", bus, addr, topo, opts...)
}

// NewSelector builds an n-port selector head with the common center port
// numbered n+1.
func NewSelector(name string, bus *transport.Bus, ports int, addr string, opts ...valve.ControllerOption) (*Valve, error) {
	if ports < 2 || ports > 16 {
		return nil, fmt.Errorf("%w: selector with %d ports", valve.ErrInvalidTopology, ports)
	}

	rotor := valve.Face{Radial: make([]valve.Port, ports), Center: valve.P(1)}
	rotor.Radial[0] = valve.P(1)
	stator := valve.Face{Radial: make([]valve.Port, ports), Center: valve.P(uint8(ports + 1))}
	for i := 0; i < ports; i++ {
		stator.Radial[i] = valve.P(uint8(i + 1))
	}

	topo, err := valve.NewTopology(rotor, stator)
	if err != nil {
		return nil, err
	}
	return NewFromTopology(name, "MVP selector", bus, addr, topo, opts...)
}

// NewFromTopology builds a positioner for a custom head.
func NewFromTopology(name, model string, bus *transport.Bus, addr string, topo valve.Topology, opts ...valve.ControllerOption) (*Valve, error) {
	if len(addr) != 1 || addr[0] < 'a' || addr[0] > 'z' {
		return nil, fmt.Errorf("invalid positioner address %q: want a single letter a-z", addr)
	}

	graph := valve.NewGraph(topo)
	tr := &busTransport{bus: bus, addr: addr}
	ctrl, err := valve.NewController(graph, valve.LetterAdapter{Count: graph.Positions()}, tr, opts...)
	if err != nil {
		return nil, err
	}
	return &Valve{
		info: labflow.NewInfo(name, "Hamilton", model, "", addr),
		ctrl: ctrl,
	}, nil
}

// busTransport frames MVP commands on the shared bus.
type busTransport struct {
	bus  *transport.Bus
	addr string
}

var _ valve.Transport = (*busTransport)(nil)

func (t *busTransport) ReadRawPosition(ctx context.Context) (valve.RawCode, error) {
	reply, err := t.bus.RoundTrip(ctx, []byte(t.addr+"Q\r"))
	if err != nil {
		return "", err
	}
	code := strings.TrimSpace(string(reply))
	if code == "" {
		return "", fmt.Errorf("malformed position reply %q", reply)
	}
	return valve.RawCode(code), nil
}

func (t *busTransport) WriteRawPosition(ctx context.Context, code valve.RawCode) error {
	reply, err := t.bus.RoundTrip(ctx, []byte(t.addr+"V"+string(code)+"\r"))
	if err != nil {
		return err
	}
	if got := strings.TrimSpace(string(reply)); got != string(code) {
		return fmt.Errorf("positioner echoed %q for position %s", got, code)
	}
	return nil
}
