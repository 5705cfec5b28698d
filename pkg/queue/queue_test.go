package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/core"
	"github.com/schorsch3000/squeuelite/pkg/security"
)

// ──────────────────────────────────────────────────────────────────────────────
// Construction / configuration
// ──────────────────────────────────────────────────────────────────────────────

func TestNew_NilStorage(t *testing.T) {
	q, err := New(nil)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, core.ErrNilStorage)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	s := newTestStorage(t)

	_, err := New(s, StallTimeout(0))
	assert.ErrorIs(t, err, core.ErrInvalidStallTimeout)

	_, err = New(s, MaxRetries(-1))
	assert.ErrorIs(t, err, core.ErrInvalidMaxRetries)

	_, err = New(s, DoneRetention(-time.Second))
	assert.ErrorIs(t, err, core.ErrInvalidDoneRetention)

	_, err = New(s, FailedRetention(-time.Second))
	assert.ErrorIs(t, err, core.ErrInvalidFailedRetention)
}

func TestNew_Defaults(t *testing.T) {
	q, err := New(newTestStorage(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), q.Config())
	assert.Equal(t, codec.NameJSON, q.Codec().Name())
	assert.NotNil(t, q.Storage())
}

func TestReconfigure_RoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)

	require.NoError(t, q.Reconfigure(
		StallTimeout(42*time.Second),
		MaxRetries(9),
		DoneRetention(5*time.Second),
		FailedRetention(6*time.Second),
	))

	assert.Equal(t, Config{
		StallTimeout:    42 * time.Second,
		MaxRetries:      9,
		DoneRetention:   5 * time.Second,
		FailedRetention: 6 * time.Second,
	}, q.Config())
}

func TestReconfigure_InvalidKeepsPrevious(t *testing.T) {
	q, _ := newTestQueue(t, MaxRetries(5))
	before := q.Config()

	err := q.Reconfigure(MaxRetries(1), StallTimeout(500*time.Millisecond))
	assert.ErrorIs(t, err, core.ErrInvalidStallTimeout)
	assert.Equal(t, before, q.Config(), "failed reconfigure must not apply any option")

	assert.ErrorIs(t, q.Reconfigure(FailedRetention(-1)), core.ErrInvalidFailedRetention)
	assert.Equal(t, before, q.Config())
}

func TestReconfigure_ChangesClaimBehaviour(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t)

	_, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	h, err := q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, h)

	clock.Advance(10 * time.Second)
	again, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "default stall timeout not reached")

	require.NoError(t, q.Reconfigure(StallTimeout(5*time.Second)))
	again, err = q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, h.ID(), again.ID())
}

// ──────────────────────────────────────────────────────────────────────────────
// Enqueue / QueueCounts
// ──────────────────────────────────────────────────────────────────────────────

func TestEnqueue_ReturnsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	first, err := q.Enqueue(ctx, "q", map[string]any{"n": 1})
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "q", map[string]any{"n": 2})
	require.NoError(t, err)

	assert.Positive(t, first)
	assert.Greater(t, second, first)
}

func TestEnqueue_StoresReadyRow(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t)

	id, err := q.Enqueue(ctx, "mail", map[string]string{"to": "a@b.c"})
	require.NoError(t, err)

	job, err := q.Storage().GetJob(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "mail", job.Queue)
	assert.Equal(t, core.StatusReady, job.Status)
	assert.JSONEq(t, `{"to":"a@b.c"}`, string(job.Input))
	assert.True(t, job.CreatedAt.Equal(clock.Now()))
	assert.Zero(t, job.RetryCount)
	assert.Nil(t, job.LockedAt)
}

func TestEnqueue_ValidatesQueueName(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	_, err := q.Enqueue(ctx, "", "x")
	assert.ErrorIs(t, err, core.ErrInvalidQueueName)

	for _, name := range []string{"emails/welcome", "my queue", "café", "_internal"} {
		_, err = q.Enqueue(ctx, name, "x")
		assert.NoError(t, err, "queue name %q", name)
	}

	_, err = q.Enqueue(ctx, strings.Repeat("a", security.MaxQueueNameLength+1), "x")
	assert.ErrorIs(t, err, core.ErrQueueNameTooLong)
}

func TestEnqueue_RejectsOversizedPayload(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), "q", strings.Repeat("x", security.MaxPayloadSize))
	assert.ErrorIs(t, err, core.ErrPayloadTooLarge)
}

func TestEnqueue_RejectsUnencodableInput(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), "q", make(chan int))
	assert.Error(t, err)
}

func TestQueueCounts(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	for _, name := range []string{"a", "a", "b"} {
		_, err := q.Enqueue(ctx, name, name)
		require.NoError(t, err)
	}
	_, err := q.Claim(ctx, "b")
	require.NoError(t, err)

	counts, err := q.QueueCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 2}, counts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Claim
// ──────────────────────────────────────────────────────────────────────────────

func TestClaim_FIFOWithinQueue(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(ctx, "q", i)
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Millisecond)
	}

	for i, want := range ids {
		h, err := q.Claim(ctx, "q")
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, want, h.ID())
		assert.Equal(t, float64(i), h.Input())
	}

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestClaim_FIFOAcrossFilteredQueues(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t)

	a1, _ := q.Enqueue(ctx, "a", "a1")
	clock.Advance(time.Second)
	_, _ = q.Enqueue(ctx, "c", "c1")
	clock.Advance(time.Second)
	b1, _ := q.Enqueue(ctx, "b", "b1")
	clock.Advance(time.Second)
	a2, _ := q.Enqueue(ctx, "a", "a2")

	var got []int64
	for {
		h, err := q.Claim(ctx, "a", "b")
		require.NoError(t, err)
		if h == nil {
			break
		}
		got = append(got, h.ID())
	}
	assert.Equal(t, []int64{a1, b1, a2}, got)

	counts, err := q.QueueCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"c": 1}, counts, "filtered-out queue untouched")
}

func TestClaim_NoFilterMatchesAll(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "whatever", 1)
	require.NoError(t, err)

	h, err := q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, id, h.ID())
	assert.Equal(t, "whatever", h.Queue())
}

func TestClaim_EmptyStoreReturnsNil(t *testing.T) {
	q, _ := newTestQueue(t)

	h, err := q.Claim(context.Background(), "q")
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestClaim_ValidatesFilter(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.Claim(context.Background(), "ok", "")
	assert.ErrorIs(t, err, core.ErrInvalidQueueName)
}

func TestClaim_FilterAcceptsAnyName(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	h, err := q.Claim(ctx, "my queue", "café")
	require.NoError(t, err)
	assert.Nil(t, h)

	id, err := q.Enqueue(ctx, "emails/welcome", "x")
	require.NoError(t, err)

	h, err = q.Claim(ctx, "my queue", "emails/welcome")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, id, h.ID())
	assert.Equal(t, "emails/welcome", h.Queue())
}

func TestClaim_ConcurrentClaimsNeverShareAJob(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t)

	const total = 30
	for i := 0; i < total; i++ {
		_, err := q.Enqueue(ctx, "q", i)
		require.NoError(t, err)
		clock.Advance(time.Millisecond)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int64]int)
		wg   sync.WaitGroup
	)
	for iter := 0; iter < 5; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				h, err := q.Claim(ctx, "q")
				if !assert.NoError(t, err) || h == nil {
					return
				}
				mu.Lock()
				seen[h.ID()]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "job %d delivered %d times", id, n)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Stall reclaim / retry exhaustion
// ──────────────────────────────────────────────────────────────────────────────

func TestClaim_ReclaimsStalledJob(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, StallTimeout(10*time.Second))

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Zero(t, h.RetryCount())

	clock.Advance(11 * time.Second)

	again, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, id, again.ID())
	assert.Equal(t, 1, again.RetryCount())
}

func TestHeartbeat_PreventsReclaim(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, StallTimeout(10*time.Second))

	_, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, h)

	for iter := 0; iter < 3; iter++ {
		clock.Advance(8 * time.Second)
		ok, err := h.Heartbeat(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	clock.Advance(8 * time.Second)
	again, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	assert.Nil(t, again, "heartbeats keep the lease")
}

func TestHeartbeat_FalseAfterReclaim(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, StallTimeout(10*time.Second))

	_, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)

	clock.Advance(11 * time.Second)
	_, err = q.Sweep(ctx)
	require.NoError(t, err)

	ok, err := h.Heartbeat(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeartbeat_UnknownJob(t *testing.T) {
	q, _ := newTestQueue(t)

	ok, err := q.Heartbeat(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaim_RetryExhaustionFailsJob(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, StallTimeout(10*time.Second), MaxRetries(2))

	id, err := q.Enqueue(ctx, "q", "poison")
	require.NoError(t, err)

	for attempt := 0; attempt < 2; attempt++ {
		h, err := q.Claim(ctx, "q")
		require.NoError(t, err)
		require.NotNil(t, h, "attempt %d", attempt)
		assert.Equal(t, attempt, h.RetryCount())
		clock.Advance(11 * time.Second)
	}

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	assert.Nil(t, h, "exhausted job is never claimed again")

	res, err := q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 2, res.RetryCount)

	clock.Advance(time.Minute)
	h, err = q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestClaim_ZeroMaxRetriesFailsPendingJobs(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t, MaxRetries(0))

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	assert.Nil(t, h)

	res, err := q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, res.State)
}

func TestClaim_RealTimeStall(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past the minimum stall timeout")
	}
	ctx := context.Background()
	q, err := New(newTestStorage(t), StallTimeout(time.Second))
	require.NoError(t, err)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	_, err = q.Claim(ctx, "q")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, id, h.ID())
	assert.Equal(t, 1, h.RetryCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// Complete / IsReady / Status / Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_VisibleThroughIsReady(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "q", map[string]int{"a": 2, "b": 3})
	require.NoError(t, err)

	ready, err := q.IsReady(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ready, "pending")

	h, err := q.Claim(ctx, "q")
	require.NoError(t, err)
	require.NotNil(t, h)

	ready, err = q.IsReady(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ready, "running")

	var in struct{ A, B int }
	require.NoError(t, h.Bind(&in))
	require.NoError(t, h.Complete(ctx, in.A+in.B))

	var sum int
	ready, err = q.IsReady(ctx, id, &sum)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 5, sum)
}

func TestComplete_WithoutClaim(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, id, "forced"))

	var out string
	ready, err := q.IsReady(ctx, id, &out)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, "forced", out)
}

func TestComplete_RejectsOversizedOutput(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)

	err = q.Complete(ctx, id, strings.Repeat("y", security.MaxPayloadSize))
	assert.ErrorIs(t, err, core.ErrPayloadTooLarge)
}

func TestIsReady_UnknownJob(t *testing.T) {
	q, _ := newTestQueue(t)

	ready, err := q.IsReady(context.Background(), 999, nil)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestStatus_AllStates(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	res, err := q.Status(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
	assert.ErrorIs(t, res.Decode(new(any)), core.ErrNoOutput)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	res, err = q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatePending, res.State)
	assert.Equal(t, "q", res.Queue)

	_, err = q.Claim(ctx)
	require.NoError(t, err)
	res, err = q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, res.State)
	assert.Nil(t, res.Output)

	require.NoError(t, q.Complete(ctx, id, []string{"ok"}))
	res, err = q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	var out []string
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, []string{"ok"}, out)
}

func TestRetention_PurgesDoneJobs(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, DoneRetention(time.Minute))

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, id, "y"))

	clock.Advance(30 * time.Second)
	ready, err := q.IsReady(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, ready)

	clock.Advance(31 * time.Second)
	_, err = q.Claim(ctx)
	require.NoError(t, err)

	res, err := q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
}

func TestRetention_PurgesFailedJobs(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, MaxRetries(0), FailedRetention(time.Minute))

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)

	res, err := q.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Failed)

	clock.Advance(2 * time.Minute)
	res, err = q.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.FailedPurged)

	status, err := q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, status.State)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)

	require.NoError(t, q.Delete(ctx, id))
	require.NoError(t, q.Delete(ctx, id))

	res, err := q.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)

	h, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestDelete_ClaimedJob(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	h, err := q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, h)

	require.NoError(t, q.Delete(ctx, id))

	ok, err := h.Heartbeat(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// Codec
// ──────────────────────────────────────────────────────────────────────────────

func TestMsgpackCodec_RoundTrip(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(t, WithCodec(codec.Msgpack{}))

	type payload struct {
		Name  string
		Count int
	}
	id, err := q.Enqueue(ctx, "q", payload{Name: "n", Count: 4})
	require.NoError(t, err)

	h, err := q.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, h)

	var in payload
	require.NoError(t, h.Bind(&in))
	assert.Equal(t, payload{Name: "n", Count: 4}, in)
	require.NoError(t, h.Complete(ctx, in.Count*2))

	var out int
	ready, err := q.IsReady(ctx, id, &out)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 8, out)
}

// ──────────────────────────────────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────────────────────────────────

func TestEvents_Lifecycle(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue(t, StallTimeout(5*time.Second))

	events := q.Events()
	defer q.Unsubscribe(events)

	id, err := q.Enqueue(ctx, "q", "x")
	require.NoError(t, err)
	_, err = q.Claim(ctx)
	require.NoError(t, err)
	clock.Advance(6 * time.Second)
	_, err = q.Sweep(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, id, "y"))
	require.NoError(t, q.Delete(ctx, id))

	var got []core.Event
	for iter := 0; iter < 5; iter++ {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatalf("only received %d events", len(got))
		}
	}

	require.IsType(t, &core.JobEnqueued{}, got[0])
	assert.Equal(t, id, got[0].(*core.JobEnqueued).Job.ID)
	require.IsType(t, &core.JobClaimed{}, got[1])
	require.IsType(t, &core.QueueSwept{}, got[2])
	assert.Equal(t, int64(1), got[2].(*core.QueueSwept).Result.Reclaimed)
	require.IsType(t, &core.JobCompleted{}, got[3])
	require.IsType(t, &core.JobDeleted{}, got[4])
}

func TestEvents_Unsubscribe(t *testing.T) {
	q, _ := newTestQueue(t)

	events := q.Events()
	q.Unsubscribe(events)

	_, err := q.Enqueue(context.Background(), "q", "x")
	require.NoError(t, err)

	select {
	case e := <-events:
		t.Fatalf("unexpected event %T", e)
	default:
	}
}

func TestEmit_DropsWhenSubscriberFull(t *testing.T) {
	q, _ := newTestQueue(t)
	events := q.Events()
	defer q.Unsubscribe(events)

	for iter := 0; iter < 150; iter++ {
		q.Emit(&core.JobDeleted{JobID: 1})
	}
	assert.Len(t, events, 100)
}

// ──────────────────────────────────────────────────────────────────────────────
// Storage failures
// ──────────────────────────────────────────────────────────────────────────────

// failingStorage fails every call it overrides.
type failingStorage struct {
	core.Storage
	err error
}

func (f *failingStorage) Purge(ctx context.Context, doneCutoff, failedCutoff time.Time) (core.SweepResult, error) {
	return core.SweepResult{}, f.err
}

func (f *failingStorage) Sweep(ctx context.Context, req core.SweepRequest) (core.SweepResult, error) {
	return core.SweepResult{}, f.err
}

func (f *failingStorage) Insert(ctx context.Context, job *core.Job) error {
	return f.err
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	q, err := New(&failingStorage{err: boom})
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, "q", "x")
	assert.ErrorIs(t, err, boom)

	_, err = q.Claim(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = q.Sweep(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = q.IsReady(ctx, 1, nil)
	assert.ErrorIs(t, err, boom)
}
