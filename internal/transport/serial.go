package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	serial "github.com/tarm/goserial"
)

// DefaultBaud is the factory setting of the Parsivel RS-485/USB interface.
const DefaultBaud = 19200

// Serial reads telegrams from a USB or RS-232 port.
type Serial struct {
	device string
	baud   int
	rwc    io.ReadWriteCloser
	stream *stream
}

// NewSerial returns a transport for device at baud, or DefaultBaud when
// baud is zero.
func NewSerial(device string, baud int) *Serial {
	if baud == 0 {
		baud = DefaultBaud
	}
	return &Serial{device: device, baud: baud}
}

// Open opens the serial port.
func (s *Serial) Open(ctx context.Context) error {
	if s.rwc != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rwc, err := serial.OpenPort(&serial.Config{Name: s.device, Baud: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.device, err)
	}
	s.rwc = rwc
	s.stream = newStream(rwc)
	return nil
}

// Receive returns the records that arrived within timeout.
func (s *Serial) Receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	if s.stream == nil {
		return nil, ErrNotOpen
	}
	return s.stream.receive(ctx, timeout)
}

// Close closes the port.
func (s *Serial) Close() error {
	if s.rwc == nil {
		return nil
	}
	s.stream.stop()
	err := s.rwc.Close()
	s.rwc, s.stream = nil, nil
	return err
}

func (s *Serial) String() string {
	return fmt.Sprintf("serial://%s@%d", s.device, s.baud)
}
