package transport

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/chrissnell/precipmeter/internal/telegram"
)

const maxRecordSize = 64 * 1024

// stream turns a byte stream into records. A goroutine scans the stream
// and hands records over a channel so that Receive can honour a timeout
// on connections without read deadlines.
type stream struct {
	records chan string
	errs    chan error
	done    chan struct{}
}

func newStream(r io.Reader) *stream {
	s := &stream{
		records: make(chan string, 16),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go s.scan(r)
	return s
}

func (s *stream) scan(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxRecordSize)
	scanner.Split(telegram.ScanRecords)

	for scanner.Scan() {
		select {
		case s.records <- scanner.Text():
		case <-s.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case s.errs <- err:
	case <-s.done:
	}
}

func (s *stream) receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rec := <-s.records:
		return s.drain([]string{rec}), nil
	case err := <-s.errs:
		return nil, err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain appends the records that are already waiting.
func (s *stream) drain(out []string) []string {
	for {
		select {
		case rec := <-s.records:
			out = append(out, rec)
		default:
			return out
		}
	}
}

func (s *stream) stop() {
	close(s.done)
}
