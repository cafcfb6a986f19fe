// Package devices holds the vendor drivers and the YAML device profiles
// describing valve heads that are not covered by a driver's built-in
// topologies.
package devices

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/finchlabs/labflow/valve"
)

// ErrInvalidProfile indicates a device profile that cannot be turned into a
// topology and adapter.
var ErrInvalidProfile = errors.New("invalid device profile")

// FaceSpec is the YAML form of one valve face. A zero radial entry marks a
// blocked slot; a zero center means no center port.
type FaceSpec struct {
	Radial []uint8 `yaml:"radial"`
	Center uint8   `yaml:"center,omitempty"`
}

// AdapterSpec selects the vendor position-code scheme.
type AdapterSpec struct {
	Scheme  string   `yaml:"scheme"` // numeric, letters or table
	Base    int      `yaml:"base,omitempty"`
	Reverse bool     `yaml:"reverse,omitempty"`
	Codes   []string `yaml:"codes,omitempty"` // table scheme only
}

// Profile describes one valve head: its physical faces and how the vendor
// numbers the resulting positions.
type Profile struct {
	Vendor  string      `yaml:"vendor"`
	Model   string      `yaml:"model"`
	Rotor   FaceSpec    `yaml:"rotor"`
	Stator  FaceSpec    `yaml:"stator"`
	Adapter AdapterSpec `yaml:"adapter"`
}

// ReadProfile parses a YAML device profile.
func ReadProfile(r io.Reader) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}

// LoadProfile reads a YAML device profile from a file.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer f.Close()
	return ReadProfile(f)
}

func (f FaceSpec) face() valve.Face {
	return valve.Face{
		Radial: valve.Ports(f.Radial...),
		Center: valve.P(f.Center),
	}
}

// Topology builds the valve topology the profile describes.
func (p Profile) Topology() (valve.Topology, error) {
	return valve.NewTopology(p.Rotor.face(), p.Stator.face())
}

// BuildAdapter builds the vendor adapter for a graph with the given number
// of positions.
func (p Profile) BuildAdapter(positions int) (valve.Adapter, error) {
	switch p.Adapter.Scheme {
	case "", "numeric":
		return valve.NumericAdapter{
			Count:   positions,
			Base:    p.Adapter.Base,
			Reverse: p.Adapter.Reverse,
		}, nil
	case "letters":
		return valve.LetterAdapter{Count: positions}, nil
	case "table":
		if len(p.Adapter.Codes) != positions {
			return nil, fmt.Errorf("%w: table has %d codes for %d positions",
				ErrInvalidProfile, len(p.Adapter.Codes), positions)
		}
		codes := make([]valve.RawCode, len(p.Adapter.Codes))
		for i, c := range p.Adapter.Codes {
			codes[i] = valve.RawCode(c)
		}
		return valve.NewTableAdapter(codes...)
	default:
		return nil, fmt.Errorf("%w: unknown adapter scheme %q", ErrInvalidProfile, p.Adapter.Scheme)
	}
}
