package log

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLimiterSuppressesRepeats(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	clock := clockwork.NewFakeClock()
	l := NewLimiter(zap.New(core).Sugar(), clock, 0)

	l.Errorf("ottRainRate", "field %s failed", "ottRainRate")
	l.Errorf("ottRainRate", "field %s failed", "ottRainRate")
	l.Errorf("ottMOR", "field %s failed", "ottMOR")
	assert.Equal(t, 2, logs.Len())

	clock.Advance(299 * time.Second)
	l.Errorf("ottRainRate", "field %s failed", "ottRainRate")
	assert.Equal(t, 2, logs.Len())

	clock.Advance(time.Second)
	l.Errorf("ottRainRate", "field %s failed", "ottRainRate")
	assert.Equal(t, 3, logs.Len())
}

func TestLimiterAllow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLimiter(zap.NewNop().Sugar(), clock, time.Minute)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	clock.Advance(time.Minute)
	assert.True(t, l.Allow("a"))
}
