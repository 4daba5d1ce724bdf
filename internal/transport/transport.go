// Package transport delivers raw telegrams from a disdrometer over TCP, UDP
// or a serial line, or from a built-in simulator.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrTimeout is returned by Receive when no record arrived in time.
	ErrTimeout = errors.New("timed out waiting for data")
	// ErrNotOpen is returned by Receive before Open succeeded.
	ErrNotOpen = errors.New("transport not open")
	// ErrMissingTransportTarget is returned by New when the connection
	// lacks the host, port or device it needs.
	ErrMissingTransportTarget = errors.New("missing transport target")
	// ErrUnknownConnection is returned by New for unsupported connection
	// types.
	ErrUnknownConnection = errors.New("unknown connection type")
)

// Connection types.
const (
	ConnectionTCP       = "tcp"
	ConnectionUDP       = "udp"
	ConnectionUSB       = "usb"
	ConnectionSerial    = "serial"
	ConnectionSimulator = "simulator"
	ConnectionNone      = "none"
)

// Transport is a source of telegrams. Open and Close may be called
// repeatedly; Receive blocks until at least one record arrived, the
// timeout expired or ctx was cancelled.
type Transport interface {
	Open(ctx context.Context) error
	Receive(ctx context.Context, timeout time.Duration) ([]string, error)
	Close() error
	String() string
}

// Config selects and parameterizes a transport.
type Config struct {
	Connection string
	Host       string
	Port       int
	Device     string
	Baud       int
	// Interval is the simulator's telegram interval.
	Interval time.Duration
	// Clock drives the simulator. It defaults to the real clock.
	Clock clockwork.Clock
}

// New returns the transport described by c.
func New(c Config) (Transport, error) {
	switch strings.ToLower(c.Connection) {
	case ConnectionTCP:
		if c.Host == "" || c.Port == 0 {
			return nil, fmt.Errorf("%w: tcp needs host and port", ErrMissingTransportTarget)
		}
		return NewTCP(c.Host, c.Port), nil
	case ConnectionUDP:
		if c.Port == 0 {
			return nil, fmt.Errorf("%w: udp needs a port", ErrMissingTransportTarget)
		}
		return NewUDP(c.Host, c.Port), nil
	case ConnectionUSB, ConnectionSerial:
		if c.Device == "" {
			return nil, fmt.Errorf("%w: %s needs a device", ErrMissingTransportTarget, c.Connection)
		}
		return NewSerial(c.Device, c.Baud), nil
	case ConnectionSimulator, ConnectionNone, "":
		clock := c.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		return NewSimulator(clock, c.Interval), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, c.Connection)
}
