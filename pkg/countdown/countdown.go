package countdown

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimeToStart returns how long remains until startAt, floored at zero.
func TimeToStart(startAt, now time.Time) time.Duration {
	d := startAt.Sub(now)
	if d < 0 {
		return 0
	}

	return d
}

// CanGoLive reports whether the scheduled start instant has been reached.
func CanGoLive(startAt, now time.Time) bool {
	return TimeToStart(startAt, now) == 0
}

// Format renders d as HH:MM:SS, e.g. 3661 seconds as "01:01:01".
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d / time.Second)
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}

// Watcher re-derives the remaining time on a fixed tick, independent of any
// rendering cycle. It is cancellable through its context.
type Watcher struct {
	startAt  time.Time
	interval time.Duration
	clock    clockwork.Clock
}

func NewWatcher(startAt time.Time, interval time.Duration, clock clockwork.Clock) *Watcher {
	return &Watcher{
		startAt:  startAt,
		interval: interval,
		clock:    clock,
	}
}

// Run invokes fn with the remaining time on every tick until the countdown
// reaches zero or ctx is cancelled. fn is always called once with the final
// zero value before Run returns normally.
func (w *Watcher) Run(ctx context.Context, fn func(remaining time.Duration)) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		remaining := TimeToStart(w.startAt, w.clock.Now())
		fn(remaining)
		if remaining == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}
