package valve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopology(t *testing.T) {
	tests := []struct {
		name    string
		rotor   Face
		stator  Face
		wantErr bool
	}{
		{
			name:   "six port two position head",
			rotor:  Face{Radial: Ports(1, 1, 2, 2, 3, 3)},
			stator: Face{Radial: Ports(1, 2, 3, 4, 5, 6)},
		},
		{
			name:   "selector with center ports",
			rotor:  Face{Radial: Ports(1, 0, 0, 0, 0, 0), Center: P(1)},
			stator: Face{Radial: Ports(1, 2, 3, 4, 5, 6), Center: P(7)},
		},
		{
			name:   "absent markers allowed on either face",
			rotor:  Face{Radial: Ports(1, 0, 1, 0)},
			stator: Face{Radial: Ports(1, 0, 2, 0)},
		},
		{
			name:    "radial length mismatch",
			rotor:   Face{Radial: Ports(1, 1, 2)},
			stator:  Face{Radial: Ports(1, 2, 3, 4)},
			wantErr: true,
		},
		{
			name:    "no radial slots",
			rotor:   Face{},
			stator:  Face{},
			wantErr: true,
		},
		{
			name:    "duplicate stator port",
			rotor:   Face{Radial: Ports(1, 1, 2, 2)},
			stator:  Face{Radial: Ports(1, 2, 2, 3)},
			wantErr: true,
		},
		{
			name:    "stator center repeats radial port",
			rotor:   Face{Radial: Ports(1, 1), Center: P(1)},
			stator:  Face{Radial: Ports(1, 2), Center: P(2)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTopology(tt.rotor, tt.stator)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTopology)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTopologyImmutable(t *testing.T) {
	rotor := Face{Radial: Ports(1, 1, 2, 2, 3, 3)}
	stator := Face{Radial: Ports(1, 2, 3, 4, 5, 6)}
	topo, err := NewTopology(rotor, stator)
	require.NoError(t, err)

	// Mutating the input faces or the returned copies must not leak into
	// the topology.
	rotor.Radial[0] = P(9)
	got := topo.Rotor()
	got.Radial[1] = P(9)

	assert.Equal(t, Ports(1, 1, 2, 2, 3, 3), topo.Rotor().Radial)
	assert.Equal(t, 6, topo.Steps())
}

func TestPortHelpers(t *testing.T) {
	assert.True(t, None.IsNone())
	assert.True(t, P(0).IsNone())
	assert.False(t, P(3).IsNone())
	assert.Equal(t, uint8(3), P(3).Num())
	assert.Equal(t, "3", P(3).String())
	assert.Equal(t, "-", None.String())
	assert.Equal(t, []Port{P(1), None, P(2)}, Ports(1, 0, 2))
}
