package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	position float64
	seeks    []float64
}

func (p *fakePlayer) Position() float64 {
	return p.position
}

func (p *fakePlayer) SeekTo(seconds float64) {
	p.position = seconds
	p.seeks = append(p.seeks, seconds)
}

func snapshotAt(clock clockwork.Clock) Snapshot {
	return Snapshot{
		RoomId:                "room-1",
		IsPlaying:             true,
		PositionSeconds:       100,
		DurationSeconds:       5400,
		DriftThresholdSeconds: 2,
		HostTimestamp:         clock.Now().UnixMilli(),
	}
}

func TestReconcileCorrectsDrift(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 101}
	r := New(player, clock)

	require.True(t, r.Apply(snapshotAt(clock)))

	// 5s after the host stamped position 100, a player at 101 is 4s behind.
	clock.Advance(5 * time.Second)

	expected, corrected := r.Reconcile()
	assert.Equal(t, float64(105), expected)
	assert.True(t, corrected)
	assert.Equal(t, []float64{105}, player.seeks)
}

func TestReconcileWithinThreshold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 104}
	r := New(player, clock)

	require.True(t, r.Apply(snapshotAt(clock)))
	clock.Advance(5 * time.Second)

	expected, corrected := r.Reconcile()
	assert.Equal(t, float64(105), expected)
	assert.False(t, corrected, "drift of 1s must not trigger a seek")
	assert.Empty(t, player.seeks)
}

func TestReconcilePausedHasNoElapsed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 100}
	r := New(player, clock)

	s := snapshotAt(clock)
	s.IsPlaying = false
	require.True(t, r.Apply(s))
	clock.Advance(30 * time.Second)

	expected, corrected := r.Reconcile()
	assert.Equal(t, float64(100), expected, "paused state must not extrapolate")
	assert.False(t, corrected)
}

func TestExpectedPositionClampedToDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 0}
	r := New(player, clock)

	s := snapshotAt(clock)
	s.PositionSeconds = 5395
	require.True(t, r.Apply(s))
	clock.Advance(60 * time.Second)

	expected, ok := r.ExpectedPosition(clock.Now())
	require.True(t, ok)
	assert.Equal(t, float64(5400), expected, "extrapolation must clamp at duration")
}

func TestApplyIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 0}
	r := New(player, clock)

	s := snapshotAt(clock)
	require.True(t, r.Apply(s))
	clock.Advance(5 * time.Second)

	first, ok := r.ExpectedPosition(clock.Now())
	require.True(t, ok)

	// Duplicate delivery of the same snapshot changes nothing.
	require.True(t, r.Apply(s))
	second, ok := r.ExpectedPosition(clock.Now())
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestApplyDiscardsStaleSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 0}
	r := New(player, clock)

	stale := snapshotAt(clock)
	stale.PositionSeconds = 40

	clock.Advance(10 * time.Second)
	fresh := snapshotAt(clock)
	fresh.PositionSeconds = 50

	require.True(t, r.Apply(fresh))
	assert.False(t, r.Apply(stale), "older host timestamp must be discarded")

	expected, ok := r.ExpectedPosition(clock.Now())
	require.True(t, ok)
	assert.Equal(t, float64(50), expected)
}

func TestReconcileWithoutSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 42}
	r := New(player, clock)

	expected, corrected := r.Reconcile()
	assert.Equal(t, float64(0), expected)
	assert.False(t, corrected)
	assert.Empty(t, player.seeks)

	_, ok := r.ExpectedPosition(clock.Now())
	assert.False(t, ok)
}

func TestFixSyncMatchesTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 90}
	r := New(player, clock)

	require.True(t, r.Apply(snapshotAt(clock)))
	clock.Advance(5 * time.Second)

	expected, corrected := r.FixSync()
	assert.Equal(t, float64(105), expected)
	assert.True(t, corrected)
	assert.Equal(t, float64(105), player.Position())
}

func TestRunReconcilesOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	player := &fakePlayer{position: 0}
	r := New(player, clock)

	require.True(t, r.Apply(snapshotAt(clock)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, time.Second)
	}()

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	assert.Eventually(t, func() bool {
		return player.Position() == 110
	}, time.Second, 10*time.Millisecond, "tick must correct the player to the extrapolated position")

	cancel()
	<-done
}
