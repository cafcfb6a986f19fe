package transport

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Conn is a single open byte-level connection to an instrument. Serial
// hardware is the usual implementation; tests substitute in-memory conns.
type Conn interface {
	Close() error
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	ReadContext(ctx context.Context, buf []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	FlushInput() error
	FlushOutput() error
}

// conn is the concrete serial implementation of the Conn interface
type conn struct {
	mu     sync.RWMutex
	fd     int
	config Config
	closed bool
}

// Ensure conn implements Conn interface at compile time
var _ Conn = (*conn)(nil)

// baudConstant converts an integer baud rate to the unix constant
func baudConstant(rate int) (uint32, error) {
	switch rate {
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// Open opens a serial connection with the given device path and options
func Open(device string, opts ...Option) (Conn, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		switch err {
		case unix.ENOENT:
			return nil, ErrDeviceNotFound
		case unix.EACCES:
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to open %s: %v", device, err)
	}

	if err := configureTermios(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &conn{fd: fd, config: config}, nil
}

// configureTermios configures the serial line using clean unix package calls
func configureTermios(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	// Raw mode, 8N1 by default
	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// Timeout: VMIN=0, VTIME from config (deciseconds)
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = uint8(config.ReadTimeoutTenths)

	baud, err := baudConstant(config.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	if config.DataBits != 8 {
		termios.Cflag &^= unix.CSIZE
		switch config.DataBits {
		case 5:
			termios.Cflag |= unix.CS5
		case 6:
			termios.Cflag |= unix.CS6
		case 7:
			termios.Cflag |= unix.CS7
		}
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}
	return nil
}

// Close closes the serial connection
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrPortClosed
	}
	err := unix.Close(c.fd)
	c.closed = true
	return err
}

// Read reads data from the serial connection
func (c *conn) Read(buf []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrPortClosed
	}
	return unix.Read(c.fd, buf)
}

// Write writes data to the serial connection
func (c *conn) Write(data []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrPortClosed
	}
	return unix.Write(c.fd, data)
}

// WriteContext writes data with context timeout support
func (c *conn) WriteContext(ctx context.Context, data []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrPortClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := unix.Write(c.fd, data)
		resultCh <- writeResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReadContext reads data with context timeout support
func (c *conn) ReadContext(ctx context.Context, buf []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, ErrPortClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	type readResult struct {
		n   int
		err error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		n, err := unix.Read(c.fd, buf)
		resultCh <- readResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// FlushInput discards any unread input data
func (c *conn) FlushInput() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrPortClosed
	}
	return unix.IoctlSetInt(c.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// FlushOutput discards any unwritten output data
func (c *conn) FlushOutput() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrPortClosed
	}
	return unix.IoctlSetInt(c.fd, unix.TCFLSH, unix.TCOFLUSH)
}
