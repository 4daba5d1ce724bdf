package log

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultQuietPeriod is how long a Limiter suppresses repeats of the same key.
const DefaultQuietPeriod = 300 * time.Second

// Limiter emits at most one message per key per quiet period. It is used for
// faults that repeat on every telegram, such as a field that never converts.
type Limiter struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
	clock  clockwork.Clock
	period time.Duration
	next   map[string]time.Time
}

// NewLimiter returns a Limiter writing to logger. A zero period selects
// DefaultQuietPeriod.
func NewLimiter(logger *zap.SugaredLogger, clock clockwork.Clock, period time.Duration) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if period <= 0 {
		period = DefaultQuietPeriod
	}
	return &Limiter{
		logger: logger,
		clock:  clock,
		period: period,
		next:   make(map[string]time.Time),
	}
}

// Allow reports whether a message for key may be emitted now and, if so,
// starts a new quiet period for it.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if until, ok := l.next[key]; ok && now.Before(until) {
		return false
	}
	l.next[key] = now.Add(l.period)
	return true
}

// Errorf logs at error level unless key is inside its quiet period.
func (l *Limiter) Errorf(key, template string, args ...interface{}) {
	if l.Allow(key) {
		l.logger.Errorf(template, args...)
	}
}

// Warnf logs at warn level unless key is inside its quiet period.
func (l *Limiter) Warnf(key, template string, args ...interface{}) {
	if l.Allow(key) {
		l.logger.Warnf(template, args...)
	}
}
