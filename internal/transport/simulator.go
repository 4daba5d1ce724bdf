package transport

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// SimulatorTelegram is the layout of the simulator's telegrams, matching
// telegram.DefaultParsivelTelegram: serial number, rain rate, accumulated
// rain, wawa, reflectivity, MOR, kinetic energy, housing temperature,
// signal amplitude, particle count and sensor state.
const SimulatorTelegram = "200248;000.000;%7.2f;%02d;-9.999;9999;000.00;%03d;15759;00000;0;\r\n"

// Simulator produces synthetic Parsivel telegrams without hardware. Each
// cycle starts dry, drizzles (wawa 51) from 30 s to 120 s and stays dry
// for the rest of the cycle.
type Simulator struct {
	clock    clockwork.Clock
	interval time.Duration
	cycle    time.Duration

	open  bool
	start time.Time
	next  time.Time
	rain  float64
}

// NewSimulator returns a simulator emitting one telegram per interval,
// every 10 seconds when interval is zero.
func NewSimulator(clock clockwork.Clock, interval time.Duration) *Simulator {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Simulator{clock: clock, interval: interval, cycle: 10 * time.Minute}
}

// Open starts a new cycle.
func (s *Simulator) Open(ctx context.Context) error {
	if s.open {
		return nil
	}
	s.open = true
	s.start = s.clock.Now()
	s.next = s.start
	s.rain = 0
	return nil
}

// Receive waits for the next telegram.
func (s *Simulator) Receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	if !s.open {
		return nil, ErrNotOpen
	}

	wait := s.next.Sub(s.clock.Now())
	if wait > timeout {
		select {
		case <-s.clock.After(timeout):
			return nil, ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if wait > 0 {
		select {
		case <-s.clock.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := s.clock.Now()
	s.next = s.next.Add(s.interval)
	return []string{s.telegram(now)}, nil
}

func (s *Simulator) telegram(now time.Time) string {
	since := now.Sub(s.start) % s.cycle
	wawa := 0
	if since >= 30*time.Second && since <= 120*time.Second {
		wawa = 51
		s.rain += 0.25
	}
	phase := float64(now.Unix()%30) / 30 * math.Pi
	temp := int(math.Round(25 + 2*math.Sin(phase)))
	return fmt.Sprintf(SimulatorTelegram, s.rain, wawa, temp)
}

// Close ends the cycle.
func (s *Simulator) Close() error {
	s.open = false
	return nil
}

func (s *Simulator) String() string {
	return "simulator"
}
