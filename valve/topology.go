package valve

import (
	"fmt"
	"strconv"
	"strings"
)

// Port identifies a single physical opening on a rotor or stator face.
// The zero value is None, the explicit absent marker used to keep rotor and
// stator sequences the same length when one side has fewer openings than the
// other. Port is comparable and safe to use as a map key.
type Port struct {
	n uint8
}

// None marks a slot with no physical port (a blocked or dead-end position).
var None = Port{}

// P returns the port with the given number. Port numbers start at 1;
// P(0) is None.
func P(n uint8) Port {
	return Port{n: n}
}

// IsNone reports whether p is the absent marker.
func (p Port) IsNone() bool {
	return p.n == 0
}

// Num returns the port number, or 0 for None.
func (p Port) Num() uint8 {
	return p.n
}

func (p Port) String() string {
	if p.IsNone() {
		return "-"
	}
	return strconv.Itoa(int(p.n))
}

// Ports is a convenience constructor for a radial port sequence.
// Zero entries become None slots.
func Ports(nums ...uint8) []Port {
	ps := make([]Port, len(nums))
	for i, n := range nums {
		ps[i] = Port{n: n}
	}
	return ps
}

// Face describes one side of a rotary valve: the radial ports arranged
// equally spaced around the circumference, plus at most one center port on
// the rotation axis. A face without a center port leaves Center as None.
type Face struct {
	Radial []Port
	Center Port
}

func (f Face) clone() Face {
	c := Face{Center: f.Center}
	c.Radial = make([]Port, len(f.Radial))
	copy(c.Radial, f.Radial)
	return c
}

// Topology is the immutable description of a valve's physical rotor/stator
// layout. It is supplied once at construction and encodes hardware that
// cannot change without re-wiring; all mutating access is prevented by
// returning defensive copies.
type Topology struct {
	rotor  Face
	stator Face
}

// NewTopology validates and freezes a rotor/stator layout.
//
// The rotor and stator radial sequences must have the same length, and every
// physical stator port must appear at most once across the stator's radial
// and center slots. Rotor ports may repeat: equal rotor port values model a
// single groove joining the stator ports it faces.
func NewTopology(rotor, stator Face) (Topology, error) {
	if len(rotor.Radial) != len(stator.Radial) {
		return Topology{}, fmt.Errorf("%w: rotor has %d radial slots, stator has %d",
			ErrInvalidTopology, len(rotor.Radial), len(stator.Radial))
	}
	if len(stator.Radial) == 0 {
		return Topology{}, fmt.Errorf("%w: no radial slots", ErrInvalidTopology)
	}

	seen := make(map[Port]bool, len(stator.Radial)+1)
	for _, p := range stator.Radial {
		if p.IsNone() {
			continue
		}
		if seen[p] {
			return Topology{}, fmt.Errorf("%w: stator port %s appears more than once",
				ErrInvalidTopology, p)
		}
		seen[p] = true
	}
	if c := stator.Center; !c.IsNone() && seen[c] {
		return Topology{}, fmt.Errorf("%w: stator center port %s repeats a radial port",
			ErrInvalidTopology, c)
	}

	return Topology{rotor: rotor.clone(), stator: stator.clone()}, nil
}

// Rotor returns a copy of the rotor face.
func (t Topology) Rotor() Face {
	return t.rotor.clone()
}

// Stator returns a copy of the stator face.
func (t Topology) Stator() Face {
	return t.stator.clone()
}

// Steps returns the number of radial slots, which is the number of discrete
// rotational offsets the rotor can take.
func (t Topology) Steps() int {
	return len(t.rotor.Radial)
}

// hasCenter reports whether either face carries a center slot. A center port
// on one side implies a (possibly absent) slot on the other, so both center
// slots are zipped together whenever one exists.
func (t Topology) hasCenter() bool {
	return !t.rotor.Center.IsNone() || !t.stator.Center.IsNone()
}

func (t Topology) String() string {
	var b strings.Builder
	b.WriteString("rotor [")
	for i, p := range t.rotor.Radial {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	if !t.rotor.Center.IsNone() {
		b.WriteString(" c:" + t.rotor.Center.String())
	}
	b.WriteString("] stator [")
	for i, p := range t.stator.Radial {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	if !t.stator.Center.IsNone() {
		b.WriteString(" c:" + t.stator.Center.String())
	}
	b.WriteString("]")
	return b.String()
}
