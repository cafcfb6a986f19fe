package valve

import "fmt"

// Resolve maps a port-connection request onto a position key.
//
// A position is acceptable iff every connect pair lies inside a single port
// group at that position and no avoid pair does. The search is an exhaustive
// filter over the precomputed graph; with at most 16 ports per valve there
// is nothing to optimize.
//
// With no acceptable position Resolve fails with ErrConnectionImpossible.
// With more than one, allowAmbiguous selects the lowest acceptable key as a
// reproducible tie-break; otherwise Resolve fails with ErrAmbiguousConnection
// and the caller should supply an avoid set to disambiguate.
func (g *Graph) Resolve(connect, avoid []Pair, allowAmbiguous bool) (Position, error) {
	var matches []Position

candidates:
	for key, cs := range g.states {
		for _, p := range connect {
			if !cs.Joined(p.A, p.B) {
				continue candidates
			}
		}
		for _, p := range avoid {
			if cs.Joined(p.A, p.B) {
				continue candidates
			}
		}
		matches = append(matches, Position(key))
	}

	switch {
	case len(matches) == 0:
		return PositionUnknown, fmt.Errorf("%w: connect %v avoid %v",
			ErrConnectionImpossible, connect, avoid)
	case len(matches) == 1:
		return matches[0], nil
	case allowAmbiguous:
		// matches are collected in key order, so the first is the lowest.
		return matches[0], nil
	default:
		return PositionUnknown, fmt.Errorf("%w: positions %v all satisfy connect %v",
			ErrAmbiguousConnection, matches, connect)
	}
}
