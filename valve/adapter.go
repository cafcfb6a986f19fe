package valve

import (
	"fmt"
	"strconv"
)

// RawCode is a vendor's wire representation of a valve position. Vendors use
// plain numbers, offset numbers, letters, and reserved codes, so the raw form
// is an opaque string.
type RawCode string

// Adapter is the stateless, total bijection between the engine's position
// keys and a vendor's raw position codes. This is the single seam where
// vendor idiosyncrasies live: 0- vs 1-indexing, letter codes, numbering
// direction. FromRaw is defined only for codes actually produced by ToRaw.
type Adapter interface {
	ToRaw(key Position) (RawCode, error)
	FromRaw(code RawCode) (Position, error)
}

// NumericAdapter maps position keys to decimal codes.
//
// Base shifts the numbering (1 for vendors that count positions from 1).
// Reverse inverts the numbering direction for heads whose positions are
// labelled counterclockwise.
type NumericAdapter struct {
	Count   int
	Base    int
	Reverse bool
}

var _ Adapter = NumericAdapter{}

func (a NumericAdapter) ToRaw(key Position) (RawCode, error) {
	if key < 0 || int(key) >= a.Count {
		return "", fmt.Errorf("%w: %d (domain 0..%d)", ErrPositionOutOfRange, key, a.Count-1)
	}
	n := int(key)
	if a.Reverse {
		n = a.Count - 1 - n
	}
	return RawCode(strconv.Itoa(a.Base + n)), nil
}

func (a NumericAdapter) FromRaw(code RawCode) (Position, error) {
	n, err := strconv.Atoi(string(code))
	if err != nil {
		return PositionUnknown, fmt.Errorf("%w: %q", ErrUnknownRawCode, code)
	}
	n -= a.Base
	if n < 0 || n >= a.Count {
		return PositionUnknown, fmt.Errorf("%w: %q", ErrUnknownRawCode, code)
	}
	if a.Reverse {
		n = a.Count - 1 - n
	}
	return Position(n), nil
}

// LetterAdapter maps position keys to single-letter codes, 0 -> "A".
// Used by vendors that address positions by letter.
type LetterAdapter struct {
	Count int
}

var _ Adapter = LetterAdapter{}

func (a LetterAdapter) ToRaw(key Position) (RawCode, error) {
	if key < 0 || int(key) >= a.Count || a.Count > 26 {
		return "", fmt.Errorf("%w: %d (domain 0..%d)", ErrPositionOutOfRange, key, a.Count-1)
	}
	return RawCode(rune('A' + key)), nil
}

func (a LetterAdapter) FromRaw(code RawCode) (Position, error) {
	if len(code) != 1 || code[0] < 'A' || int(code[0]-'A') >= a.Count {
		return PositionUnknown, fmt.Errorf("%w: %q", ErrUnknownRawCode, code)
	}
	return Position(code[0] - 'A'), nil
}

// TableAdapter maps position keys through an explicit code table, for
// vendors with irregular schemes such as a reserved code for a fixed common
// port. The key domain is the table's index range.
type TableAdapter struct {
	codes []RawCode
	keys  map[RawCode]Position
}

var _ Adapter = (*TableAdapter)(nil)

// NewTableAdapter builds a TableAdapter where codes[k] is the raw code for
// position key k. Codes must be distinct.
func NewTableAdapter(codes ...RawCode) (*TableAdapter, error) {
	a := &TableAdapter{
		codes: append([]RawCode(nil), codes...),
		keys:  make(map[RawCode]Position, len(codes)),
	}
	for i, c := range codes {
		if _, dup := a.keys[c]; dup {
			return nil, fmt.Errorf("%w: duplicate code %q", ErrInvalidAdapter, c)
		}
		a.keys[c] = Position(i)
	}
	return a, nil
}

func (a *TableAdapter) ToRaw(key Position) (RawCode, error) {
	if key < 0 || int(key) >= len(a.codes) {
		return "", fmt.Errorf("%w: %d (domain 0..%d)", ErrPositionOutOfRange, key, len(a.codes)-1)
	}
	return a.codes[key], nil
}

func (a *TableAdapter) FromRaw(code RawCode) (Position, error) {
	key, ok := a.keys[code]
	if !ok {
		return PositionUnknown, fmt.Errorf("%w: %q", ErrUnknownRawCode, code)
	}
	return key, nil
}

// checkAdapter verifies that the adapter is a total bijection over the
// graph's key domain: every key round-trips through ToRaw/FromRaw and no two
// keys share a code.
func checkAdapter(a Adapter, positions int) error {
	seen := make(map[RawCode]Position, positions)
	for k := Position(0); int(k) < positions; k++ {
		code, err := a.ToRaw(k)
		if err != nil {
			return fmt.Errorf("%w: ToRaw(%d): %v", ErrInvalidAdapter, k, err)
		}
		if prev, dup := seen[code]; dup {
			return fmt.Errorf("%w: positions %d and %d both map to %q", ErrInvalidAdapter, prev, k, code)
		}
		seen[code] = k
		back, err := a.FromRaw(code)
		if err != nil {
			return fmt.Errorf("%w: FromRaw(%q): %v", ErrInvalidAdapter, code, err)
		}
		if back != k {
			return fmt.Errorf("%w: %d -> %q -> %d", ErrInvalidAdapter, k, code, back)
		}
	}
	return nil
}
