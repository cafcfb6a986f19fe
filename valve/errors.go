package valve

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	// ErrInvalidTopology indicates a malformed rotor/stator description.
	// Raised once at construction and never retried.
	ErrInvalidTopology = errors.New("invalid valve topology")

	// ErrConnectionImpossible indicates that no hardware position satisfies
	// the requested connect/avoid constraints.
	ErrConnectionImpossible = errors.New("no valve position satisfies the requested connections")

	// ErrAmbiguousConnection indicates that more than one position satisfies
	// the request and ambiguous matches were not allowed. Supply an avoid set
	// to disambiguate, or allow ambiguous matches.
	ErrAmbiguousConnection = errors.New("multiple valve positions satisfy the requested connections")

	// ErrPositionOutOfRange indicates a position key outside the connection
	// graph's key domain.
	ErrPositionOutOfRange = errors.New("position key outside the connection graph")

	// ErrUnknownRawCode indicates a raw position code that the adapter never
	// produces.
	ErrUnknownRawCode = errors.New("unknown raw position code")

	// ErrInvalidAdapter indicates an adapter that is not a total bijection
	// over the connection graph's key domain.
	ErrInvalidAdapter = errors.New("adapter is not a bijection over the position keys")

	// ErrCommunication indicates a transport failure while reading or
	// writing the hardware position. The controller's cached position is
	// left untouched; retrying the whole operation is safe.
	ErrCommunication = errors.New("device communication failed")
)

// CommError wraps a transport failure with the operation that caused it.
// It matches ErrCommunication under errors.Is and unwraps to the underlying
// transport error.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

func (e *CommError) Is(target error) bool {
	return target == ErrCommunication
}
