// Package transport provides byte-level serial communication with lab
// instruments and the shared-bus discipline for daisy-chained devices.
//
// A Conn is one open line (termios raw mode via golang.org/x/sys). A Bus
// wraps a Conn with a mutex scoped to exactly one request/reply round-trip,
// so several logical devices addressed on the same physical line can never
// interleave commands:
//
//	conn, err := transport.Open("/dev/ttyUSB0",
//	    transport.WithBaudRate(9600),
//	    transport.WithParity(transport.ParityEven),
//	)
//	bus := transport.NewBus(conn, transport.WithTerminator('\r'))
//	reply, err := bus.RoundTrip(ctx, []byte("CP\r"))
//
// A Registry guarantees one Bus per port path; every driver asking for the
// same path receives the same handle:
//
//	reg := transport.NewRegistry()
//	bus, err := reg.Bus("/dev/ttyUSB0", nil)
//
// Timeout and retry policy lives here: WithReadTimeout controls the
// line-level timeout and WithEmptyRetry repeats a round-trip when a device
// swallows a request. Callers above only see acknowledged or failed.
package transport
