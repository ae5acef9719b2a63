package timer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	events chan Event
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{events: make(chan Event, 32)}
}

func (r *recordingBroadcaster) Broadcast(payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		panic(err)
	}
	r.events <- event
}

func (r *recordingBroadcaster) next(t *testing.T) Event {
	t.Helper()
	select {
	case event := <-r.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Event{}
	}
}

func (r *recordingBroadcaster) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case event := <-r.events:
		t.Fatalf("unexpected broadcast: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

type harness struct {
	clock       *clockwork.FakeClock
	broadcaster *recordingBroadcaster
	coordinator *Coordinator
	ctx         context.Context
}

func newHarness(t *testing.T, config Config) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	clock := clockwork.NewFakeClock()
	broadcaster := newRecordingBroadcaster()
	coordinator := NewCoordinator(clock, broadcaster, config)

	stopped := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	return &harness{clock: clock, broadcaster: broadcaster, coordinator: coordinator, ctx: ctx}
}

// startAndWait starts a countdown and blocks until its ticker is registered
func (h *harness) startAndWait(t *testing.T, durationMillis int64) {
	t.Helper()
	h.coordinator.Submit(Command{Kind: CommandStart, Duration: durationMillis})
	require.Eventually(t, func() bool {
		snap := h.coordinator.Snapshot()
		return snap.Active && snap.DurationMillis == durationMillis
	}, 2*time.Second, time.Millisecond)

	waitCtx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(waitCtx, 1))
}

func TestCoordinator_CountdownScenario(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startAndWait(t, 3000)

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(2000), h.broadcaster.next(t))

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(1000), h.broadcaster.next(t))

	h.clock.Advance(time.Second)
	assert.Equal(t, DoneEvent(), h.broadcaster.next(t))

	require.Eventually(t, func() bool { return !h.coordinator.Snapshot().Active }, time.Second, time.Millisecond)

	h.clock.Advance(time.Second)
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_DurationShorterThanTick(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startAndWait(t, 500)

	h.clock.Advance(time.Second)
	assert.Equal(t, DoneEvent(), h.broadcaster.next(t))
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_FinalTickReportsPartialRemainder(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startAndWait(t, 1500)

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(500), h.broadcaster.next(t))

	h.clock.Advance(time.Second)
	assert.Equal(t, DoneEvent(), h.broadcaster.next(t))
}

func TestCoordinator_RestartSupersedesPreviousCountdown(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startAndWait(t, 5000)

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(4000), h.broadcaster.next(t))

	h.startAndWait(t, 2000)

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(1000), h.broadcaster.next(t))

	h.clock.Advance(time.Second)
	assert.Equal(t, DoneEvent(), h.broadcaster.next(t))

	h.clock.Advance(5 * time.Second)
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_StopWhileRunning(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startAndWait(t, 5000)

	h.coordinator.HandleMessage([]byte("stop"))
	assert.Equal(t, StopEvent(), h.broadcaster.next(t))
	assert.False(t, h.coordinator.Snapshot().Active)

	h.clock.Advance(10 * time.Second)
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_StopWhileIdleStillBroadcasts(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	h.coordinator.HandleMessage([]byte("stop"))
	assert.Equal(t, StopEvent(), h.broadcaster.next(t))
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_MalformedCommandsAreIgnored(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	for _, msg := range []string{"start 0", "start -100", "start abc", "start", "start ", "pause", "STOP", ""} {
		h.coordinator.HandleMessage([]byte(msg))
	}
	h.broadcaster.assertSilent(t)
	assert.False(t, h.coordinator.Snapshot().Active)

	h.startAndWait(t, 3000)
	h.coordinator.HandleMessage([]byte("start -1"))
	h.coordinator.HandleMessage([]byte("start nope"))

	h.clock.Advance(time.Second)
	assert.Equal(t, ProgressEvent(2000), h.broadcaster.next(t))
	assert.EqualValues(t, 3000, h.coordinator.Snapshot().DurationMillis)
}

func TestCoordinator_SchedulingFailureLeavesIdle(t *testing.T) {
	h := newHarness(t, Config{TickInterval: -time.Second})

	h.coordinator.Submit(Command{Kind: CommandStart, Duration: 1000})
	// stop is processed after start, so its broadcast proves start was handled
	h.coordinator.Submit(Command{Kind: CommandStop})
	assert.Equal(t, StopEvent(), h.broadcaster.next(t))

	assert.False(t, h.coordinator.Snapshot().Active)
	h.broadcaster.assertSilent(t)
}

func TestCoordinator_SnapshotReportsRemaining(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	assert.Equal(t, Snapshot{}, h.coordinator.Snapshot())

	h.startAndWait(t, 3000)
	h.clock.Advance(time.Second)
	h.broadcaster.next(t)

	snap := h.coordinator.Snapshot()
	assert.True(t, snap.Active)
	assert.EqualValues(t, 3000, snap.DurationMillis)
	assert.EqualValues(t, 2000, snap.RemainingMillis)
}

func TestCoordinator_SnapshotNeverReportsNegativeRemaining(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	h.startAndWait(t, 500)
	h.clock.Advance(900 * time.Millisecond)

	snap := h.coordinator.Snapshot()
	assert.True(t, snap.Active, "done is only reported by the next tick")
	assert.Zero(t, snap.RemainingMillis)

	h.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, DoneEvent(), h.broadcaster.next(t))
}

func TestCoordinator_SubmitAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	coordinator := NewCoordinator(clockwork.NewFakeClock(), newRecordingBroadcaster(), Config{CommandBufferSize: 1})

	stopped := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			coordinator.Submit(Command{Kind: CommandStop})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after coordinator shut down")
	}
}
