package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newProfiler(time.Second, clock.now)

	for range 9 {
		clock.t = clock.t.Add(100 * time.Millisecond)
		_, logged := p.Tick()
		require.False(t, logged)
	}

	clock.t = clock.t.Add(300 * time.Millisecond)
	stats, logged := p.Tick()
	require.True(t, logged)
	assert.InDelta(t, 10/1.2, stats.FPS, 1e-9)
	assert.Equal(t, 300*time.Millisecond, stats.WorstFrame)
	assert.Positive(t, stats.SysMB)

	// The next window starts fresh.
	clock.t = clock.t.Add(time.Second)
	stats, logged = p.Tick()
	require.True(t, logged)
	assert.InDelta(t, 1, stats.FPS, 1e-9)
	assert.Equal(t, time.Second, stats.WorstFrame)
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	p := NewProfiler(0)
	assert.Equal(t, time.Second, p.updateInterval)
}
