// Package reconciler keeps a local player aligned with the authoritative
// playback state of a room. It never talks back to the server: corrections
// are local seeks derived from the last received snapshot and the local
// wall clock.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Snapshot is an immutable copy of a room's playback state as broadcast on
// every host mutation and heartbeat tick.
type Snapshot struct {
	RoomId                string  `json:"room_id"`
	IsPlaying             bool    `json:"is_playing"`
	PositionSeconds       float64 `json:"position_seconds"`
	DurationSeconds       float64 `json:"duration_seconds"`
	DriftThresholdSeconds float64 `json:"drift_threshold_seconds"`
	// HostTimestamp is the instant the position was last authoritatively
	// set, in unix milliseconds of the host's clock.
	HostTimestamp int64 `json:"host_timestamp"`
}

// Player is the local playback surface being corrected.
type Player interface {
	Position() float64
	SeekTo(seconds float64)
}

type Reconciler struct {
	player Player
	clock  clockwork.Clock

	mu          sync.Mutex
	snapshot    Snapshot
	hasSnapshot bool
}

func New(player Player, clock clockwork.Clock) *Reconciler {
	return &Reconciler{
		player: player,
		clock:  clock,
	}
}

// Apply stores s as the latest authoritative state. Snapshots are applied
// last-timestamp-wins: one with an older host timestamp than the currently
// held snapshot is discarded, which makes delivery idempotent under
// duplication and reordering. Reports whether the snapshot was kept.
func (r *Reconciler) Apply(s Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasSnapshot && s.HostTimestamp < r.snapshot.HostTimestamp {
		return false
	}

	r.snapshot = s
	r.hasSnapshot = true

	return true
}

// ExpectedPosition extrapolates the held snapshot to now. The second return
// is false while no snapshot has been received yet.
func (r *Reconciler) ExpectedPosition(now time.Time) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasSnapshot {
		return 0, false
	}

	return extrapolate(r.snapshot, now), true
}

// Reconcile computes the drift between the local player and the expected
// position and seeks the player when it exceeds the room threshold. It
// returns the expected position and whether a correction was applied.
// Reconciliation is best-effort and never fails; it is simply retried on
// the next tick.
func (r *Reconciler) Reconcile() (float64, bool) {
	r.mu.Lock()
	if !r.hasSnapshot {
		r.mu.Unlock()
		return 0, false
	}
	snapshot := r.snapshot
	r.mu.Unlock()

	expected := extrapolate(snapshot, r.clock.Now())

	delta := r.player.Position() - expected
	if delta < 0 {
		delta = -delta
	}

	if delta <= snapshot.DriftThresholdSeconds {
		return expected, false
	}

	r.player.SeekTo(expected)

	return expected, true
}

// FixSync is the manual "fix sync" user action: the same computation as a
// periodic tick, on demand.
func (r *Reconciler) FixSync() (float64, bool) {
	return r.Reconcile()
}

// Run reconciles on a fixed local tick until ctx is cancelled. The tick is
// independent of snapshot arrival so extrapolation continues smoothly
// between broadcasts.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Reconcile()
		}
	}
}

func extrapolate(s Snapshot, now time.Time) float64 {
	var elapsed float64
	if s.IsPlaying {
		elapsed = float64(now.UnixMilli()-s.HostTimestamp) / 1000
		if elapsed < 0 {
			elapsed = 0
		}
	}

	return clamp(s.PositionSeconds+elapsed, 0, s.DurationSeconds)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
