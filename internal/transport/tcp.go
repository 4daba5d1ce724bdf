package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// TCP connects to a sensor or serial server that streams telegrams.
type TCP struct {
	addr        string
	dialTimeout time.Duration
	conn        net.Conn
	stream      *stream
}

// NewTCP returns a transport for host:port.
func NewTCP(host string, port int) *TCP {
	return &TCP{
		addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		dialTimeout: 10 * time.Second,
	}
}

// Open dials the sensor.
func (t *TCP) Open(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	d := net.Dialer{Timeout: t.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("could not connect to %v: %w", t.addr, err)
	}
	t.conn = conn
	t.stream = newStream(conn)
	return nil
}

// Receive returns the records that arrived within timeout.
func (t *TCP) Receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	if t.stream == nil {
		return nil, ErrNotOpen
	}
	return t.stream.receive(ctx, timeout)
}

// Close drops the connection.
func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	t.stream.stop()
	err := t.conn.Close()
	t.conn, t.stream = nil, nil
	return err
}

func (t *TCP) String() string {
	return "tcp://" + t.addr
}
