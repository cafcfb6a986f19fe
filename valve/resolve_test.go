package valve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ambiguousHead has a two-slot groove connected to the center port, so any
// radial port can be reached from two neighbouring rotations.
func ambiguousHead(t *testing.T) *Graph {
	return NewGraph(mustTopology(t,
		Face{Radial: Ports(1, 1, 0, 0, 0, 0), Center: P(1)},
		Face{Radial: Ports(1, 2, 3, 4, 5, 6), Center: P(7)},
	))
}

func TestResolveUnique(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	key, err := g.Resolve([]Pair{{P(1), P(2)}}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Position(0), key)

	cs, err := g.State(key)
	require.NoError(t, err)
	assert.True(t, cs.Joined(P(1), P(2)))

	key, err = g.Resolve([]Pair{{P(2), P(3)}}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Position(1), key)
}

func TestResolveConnectAndAvoidSamePair(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	// Requiring and forbidding the same pair can never be satisfied.
	_, err := g.Resolve([]Pair{{P(1), P(2)}}, []Pair{{P(1), P(2)}}, true)
	assert.ErrorIs(t, err, ErrConnectionImpossible)
}

func TestResolveImpossible(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	// Ports 1 and 3 are never in the same groove on this head.
	_, err := g.Resolve([]Pair{{P(1), P(3)}}, nil, true)
	assert.ErrorIs(t, err, ErrConnectionImpossible)

	// Unknown port numbers resolve to nothing rather than panicking.
	_, err = g.Resolve([]Pair{{P(1), P(42)}}, nil, true)
	assert.ErrorIs(t, err, ErrConnectionImpossible)
}

func TestResolveAmbiguous(t *testing.T) {
	g := ambiguousHead(t)
	connect := []Pair{{P(7), P(1)}}

	// Two rotations join the center to port 1.
	_, err := g.Resolve(connect, nil, false)
	require.ErrorIs(t, err, ErrAmbiguousConnection)

	// Allowing ambiguity picks the lowest key, reproducibly.
	first, err := g.Resolve(connect, nil, true)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		key, err := g.Resolve(connect, nil, true)
		require.NoError(t, err)
		assert.Equal(t, first, key)
	}

	// An avoid set disambiguates without allowing ambiguity.
	strict, err := g.Resolve(connect, []Pair{{P(1), P(2)}}, false)
	require.NoError(t, err)
	assert.NotEqual(t, first, strict)

	csFirst, err := g.State(first)
	require.NoError(t, err)
	csStrict, err := g.State(strict)
	require.NoError(t, err)
	assert.True(t, csFirst.Joined(P(1), P(2)))
	assert.False(t, csStrict.Joined(P(1), P(2)))
	assert.Less(t, first, strict, "the ambiguous tie-break must pick the lowest key")
}

func TestResolveEmptyRequest(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	// No constraints: every position qualifies, the lowest wins.
	key, err := g.Resolve(nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, Position(0), key)

	_, err = g.Resolve(nil, nil, false)
	assert.ErrorIs(t, err, ErrAmbiguousConnection)
}

func TestResolveAvoidOnly(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	key, err := g.Resolve(nil, []Pair{{P(1), P(2)}}, false)
	require.NoError(t, err)
	assert.Equal(t, Position(1), key)
}
