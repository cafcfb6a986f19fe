package valve

import (
	"sort"
	"strings"
)

// Position identifies one of the valve's distinct, addressable rotational
// states. Keys are contiguous from 0; PositionUnknown marks the state before
// the first confirmed hardware read.
type Position int

// PositionUnknown is the controller's initial state.
const PositionUnknown Position = -1

// Group is the set of stator ports electrically joined together at one
// position, sorted by port number.
type Group []Port

// Contains reports whether the group includes p.
func (g Group) Contains(p Port) bool {
	for _, q := range g {
		if q == p {
			return true
		}
	}
	return false
}

func (g Group) String() string {
	parts := make([]string, len(g))
	for i, p := range g {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// ConnectionSet is the complete set of port groups at one position, in
// canonical order (groups sorted by their lowest port).
type ConnectionSet []Group

// Joined reports whether ports a and b belong to the same group.
func (cs ConnectionSet) Joined(a, b Port) bool {
	for _, g := range cs {
		if g.Contains(a) && g.Contains(b) {
			return true
		}
	}
	return false
}

// Pairs flattens the connection set into port pairs, one pair per adjacent
// group member. Resolving the returned pairs on the originating graph yields
// back a position with exactly this connection set.
func (cs ConnectionSet) Pairs() []Pair {
	var pairs []Pair
	for _, g := range cs {
		for i := 1; i < len(g); i++ {
			pairs = append(pairs, Pair{A: g[i-1], B: g[i]})
		}
	}
	return pairs
}

func (cs ConnectionSet) String() string {
	parts := make([]string, len(cs))
	for i, g := range cs {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

// fingerprint is the canonical text form used for deduplication. Two
// positions are electrically indistinguishable iff their fingerprints match.
func (cs ConnectionSet) fingerprint() string {
	return cs.String()
}

// Pair is a request to join (or keep apart) two ports.
type Pair struct {
	A, B Port
}

func (p Pair) String() string {
	return p.A.String() + ":" + p.B.String()
}

// Graph maps every addressable position of a valve to its connection set.
// It is derived once from a Topology and immutable thereafter.
type Graph struct {
	topo   Topology
	states []ConnectionSet
}

// NewGraph derives the complete set of legal switching states from a
// topology.
//
// For each rotational offset the rotor's radial sequence is cyclically
// shifted, center slots are appended when present, and the two sequences are
// zipped: stator ports facing equal rotor port values are joined into one
// group, while stator ports facing an absent rotor slot are blocked.
// Rotations producing an identical connection set (symmetric valve heads)
// are collapsed, keeping the first occurrence, so the number of addressable
// positions can be smaller than the rotor's step count.
//
// A groove touching a single stator port joins nothing and is not part of
// the connection set. Consequently rotations that differ only in which port
// is dead-ended collapse into one position: connection sets describe flow
// paths, not rotor orientation.
func NewGraph(t Topology) *Graph {
	n := t.Steps()
	g := &Graph{topo: t}
	seen := make(map[string]bool, n)

	for offset := 0; offset < n; offset++ {
		cs := connectionsAt(t, offset)
		fp := cs.fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		g.states = append(g.states, cs)
	}
	return g
}

// connectionsAt computes the raw connection set for one rotational offset.
func connectionsAt(t Topology, offset int) ConnectionSet {
	n := len(t.rotor.Radial)

	rotor := make([]Port, 0, n+1)
	stator := make([]Port, 0, n+1)
	for i := 0; i < n; i++ {
		rotor = append(rotor, t.rotor.Radial[(i+offset)%n])
		stator = append(stator, t.stator.Radial[i])
	}
	if t.hasCenter() {
		rotor = append(rotor, t.rotor.Center)
		stator = append(stator, t.stator.Center)
	}

	grooves := make(map[Port]Group)
	var order []Port
	for i, r := range rotor {
		if r.IsNone() || stator[i].IsNone() {
			continue
		}
		if _, ok := grooves[r]; !ok {
			order = append(order, r)
		}
		grooves[r] = append(grooves[r], stator[i])
	}

	var cs ConnectionSet
	for _, r := range order {
		group := grooves[r]
		if len(group) < 2 {
			// A groove over a single stator port joins nothing.
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].n < group[j].n })
		cs = append(cs, group)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i][0].n < cs[j][0].n })
	return cs
}

// Topology returns the topology the graph was built from.
func (g *Graph) Topology() Topology {
	return g.topo
}

// Positions returns the number of addressable positions.
func (g *Graph) Positions() int {
	return len(g.states)
}

// State returns the connection set at the given position key.
func (g *Graph) State(key Position) (ConnectionSet, error) {
	if key < 0 || int(key) >= len(g.states) {
		return nil, ErrPositionOutOfRange
	}
	// Groups are never mutated after construction; hand out a shallow copy
	// of the slice headers so callers cannot reorder the canonical form.
	cs := make(ConnectionSet, len(g.states[key]))
	copy(cs, g.states[key])
	return cs, nil
}

// States returns every connection set in key order.
func (g *Graph) States() []ConnectionSet {
	out := make([]ConnectionSet, len(g.states))
	for i, cs := range g.states {
		out[i] = make(ConnectionSet, len(cs))
		copy(out[i], cs)
	}
	return out
}
