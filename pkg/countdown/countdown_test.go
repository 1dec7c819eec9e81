package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestTimeToStart(t *testing.T) {
	now := time.Date(2025, 1, 18, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, 3661*time.Second, TimeToStart(now.Add(3661*time.Second), now))
	assert.Equal(t, time.Duration(0), TimeToStart(now, now))
	assert.Equal(t, time.Duration(0), TimeToStart(now.Add(-time.Hour), now), "past start must floor at zero")
}

func TestCanGoLive(t *testing.T) {
	now := time.Date(2025, 1, 18, 19, 0, 0, 0, time.UTC)

	assert.False(t, CanGoLive(now.Add(time.Second), now))
	assert.True(t, CanGoLive(now, now))
	assert.True(t, CanGoLive(now.Add(-time.Minute), now))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "01:01:01", Format(3661*time.Second))
	assert.Equal(t, "00:00:00", Format(0))
	assert.Equal(t, "00:00:59", Format(59*time.Second))
	assert.Equal(t, "25:00:00", Format(25*time.Hour))
	assert.Equal(t, "00:00:00", Format(-time.Second))
}

func TestWatcherRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := NewWatcher(clock.Now().Add(3*time.Second), time.Second, clock)

	ticks := make(chan time.Duration, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background(), func(remaining time.Duration) {
			ticks <- remaining
		})
	}()

	assert.Equal(t, 3*time.Second, <-ticks)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Equal(t, 2*time.Second, <-ticks)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Equal(t, time.Second, <-ticks)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), <-ticks, "final tick must report zero")

	<-done
}
