// Package valve models multi-port rotary valves and resolves switching
// positions from requested port connections.
//
// A rotary valve is two stacked discs: a fixed stator carrying the plumbed
// ports and a turning rotor carrying grooves that join whichever stator
// ports they face. Describing the two faces once is enough to derive every
// legal switching state of the hardware, which is what this package does for
// any head from 2 to 16 ports regardless of vendor.
//
// # Describing a valve
//
// A face is an ordered sequence of radial ports plus an optional center
// port. Rotor slots carrying the same port value belong to one groove; the
// zero value None marks a blocked slot:
//
//	// A 6-port, 2-position head: three grooves joining adjacent ports.
//	topo, err := valve.NewTopology(
//	    valve.Face{Radial: valve.Ports(1, 1, 2, 2, 3, 3)},
//	    valve.Face{Radial: valve.Ports(1, 2, 3, 4, 5, 6)},
//	)
//
// # Connection graph
//
// The graph enumerates every distinct rotational state up front; rotations
// that are electrically identical collapse into a single addressable
// position:
//
//	graph := valve.NewGraph(topo)
//	graph.Positions() // 2 for the head above
//
// # Resolving positions
//
// Resolve answers "which position joins these ports without joining those":
//
//	key, err := graph.Resolve(
//	    []valve.Pair{{valve.P(1), valve.P(2)}}, // connect
//	    nil,                                    // avoid
//	    true,                                   // allow ambiguous
//	)
//
// When several positions qualify and ambiguity is allowed, the lowest key
// wins so repeated calls are reproducible.
//
// # Driving hardware
//
// A Controller pairs the graph with a vendor Adapter (position key <-> raw
// wire code) and a Transport (one read and one write operation):
//
//	ctrl, err := valve.NewController(graph, valve.NumericAdapter{Count: 2, Base: 1}, transport)
//	err = ctrl.SetPosition(ctx, connect, nil, true)
//	cs, err := ctrl.Position(ctx)
//
// The controller caches the last confirmed position and never advances the
// cache before the hardware acknowledges.
//
// # Error Handling
//
// The package provides specific error types for robust error handling:
//
//	var (
//	    ErrInvalidTopology      // malformed rotor/stator description
//	    ErrConnectionImpossible // no position satisfies the request
//	    ErrAmbiguousConnection  // several positions satisfy the request
//	    ErrCommunication        // transport failure, cache untouched
//	    // ... and more
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, valve.ErrAmbiguousConnection) {
//	    // supply an avoid set and retry
//	}
package valve
