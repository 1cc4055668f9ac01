package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimers captures scheduled callbacks so tests fire them by hand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (ft *fakeTimers) afterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

// fireLatest runs the most recently armed, unstopped timer.
func (ft *fakeTimers) fireLatest(t *testing.T) {
	t.Helper()
	ft.mu.Lock()
	var target *fakeTimer
	for i := len(ft.timers) - 1; i >= 0; i-- {
		if !ft.timers[i].stopped {
			target = ft.timers[i]
			break
		}
	}
	ft.mu.Unlock()
	require.NotNil(t, target, "no armed timer")
	target.f()
}

func (ft *fakeTimers) armed() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	n := 0
	for _, t := range ft.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func newTestQueue() (*Queue, *fakeTimers) {
	ft := &fakeTimers{}
	return NewQueue(4*time.Second, WithAfterFunc(ft.afterFunc)), ft
}

func isDone(t *Ticket) bool {
	select {
	case <-t.Done():
		return true
	default:
		return false
	}
}

func currentTitle(t *testing.T, q *Queue) string {
	t.Helper()
	cur, ok := q.Current()
	if !ok {
		return ""
	}
	return cur.Notification.Title
}

func TestQueue_FIFOOneAtATime(t *testing.T) {
	q, _ := newTestQueue()

	a := q.Enqueue(Notification{Title: "A"})
	b := q.Enqueue(Notification{Title: "B"})
	c := q.Enqueue(Notification{Title: "C"})

	assert.Equal(t, "A", currentTitle(t, q))
	assert.Equal(t, 3, q.Len())
	assert.False(t, isDone(a))

	require.True(t, q.Dismiss())
	assert.True(t, isDone(a))
	assert.False(t, isDone(b))
	assert.Equal(t, "B", currentTitle(t, q))

	require.True(t, q.Dismiss())
	assert.True(t, isDone(b))
	assert.False(t, isDone(c))
	assert.Equal(t, "C", currentTitle(t, q))

	require.True(t, q.Dismiss())
	assert.True(t, isDone(c))
	assert.Equal(t, "", currentTitle(t, q))
	assert.False(t, q.Dismiss(), "nothing left to dismiss")
	assert.Equal(t, ReasonUser, a.Reason())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, c.ID, 36)
}

// B must not become current before A's awaitable has resolved.
func TestQueue_AwaitOrdering(t *testing.T) {
	q, _ := newTestQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tickets := []*Ticket{
		q.Enqueue(Notification{Title: "A"}),
		q.Enqueue(Notification{Title: "B"}),
		q.Enqueue(Notification{Title: "C"}),
	}

	order := make(chan string, 3)
	var wg sync.WaitGroup
	for _, tk := range tickets {
		wg.Add(1)
		go func(tk *Ticket) {
			defer wg.Done()
			if err := tk.Wait(ctx); err == nil {
				order <- tk.Notification.Title
			}
		}(tk)
	}

	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, currentTitle(t, q))
		for _, later := range tickets[i+1:] {
			assert.False(t, isDone(later))
		}
		q.Dismiss()
		assert.Equal(t, want, <-order)
	}
	wg.Wait()
}

func TestQueue_TimeoutOnlyWhileAttached(t *testing.T) {
	q, ft := newTestQueue()

	a := q.Enqueue(Notification{Title: "A"})
	assert.Zero(t, ft.armed(), "no surface attached, no countdown")

	signal, detach := q.Attach()
	<-signal
	assert.Equal(t, 1, ft.armed())
	assert.Equal(t, 4*time.Second, ft.timers[0].d)

	detach()
	assert.Zero(t, ft.armed(), "detaching pauses the countdown")
	assert.False(t, isDone(a), "a detached surface does not lose the notification")

	signal, detach = q.Attach()
	defer detach()
	<-signal

	b := q.Enqueue(Notification{Title: "B"})
	ft.fireLatest(t)
	assert.True(t, isDone(a))
	assert.Equal(t, ReasonTimeout, a.Reason())
	assert.Equal(t, "B", currentTitle(t, q))

	ft.fireLatest(t)
	assert.True(t, isDone(b))
}

func TestQueue_LateTimerIgnored(t *testing.T) {
	q, ft := newTestQueue()
	_, detach := q.Attach()
	defer detach()

	a := q.Enqueue(Notification{Title: "A"})
	q.Enqueue(Notification{Title: "B"})
	stale := ft.timers[0]

	q.Dismiss()
	assert.True(t, isDone(a))

	// A's timer fires after the user already dismissed A.
	stale.f()
	assert.Equal(t, "B", currentTitle(t, q))
}

// Stop can lose the race with a callback that is already running. That
// callback must not cut short the countdown armed on re-attach.
func TestQueue_StoppedTimerAfterReattachIgnored(t *testing.T) {
	q, ft := newTestQueue()
	_, detach := q.Attach()

	a := q.Enqueue(Notification{Title: "A"})
	first := ft.timers[0]

	detach()
	_, detach = q.Attach()
	defer detach()
	require.Len(t, ft.timers, 2)
	assert.Equal(t, 1, ft.armed())

	first.f()
	assert.False(t, isDone(a))
	assert.Equal(t, "A", currentTitle(t, q))

	ft.fireLatest(t)
	assert.True(t, isDone(a))
	assert.Equal(t, ReasonTimeout, a.Reason())
}

func TestQueue_AttachSignalsChanges(t *testing.T) {
	q, _ := newTestQueue()
	signal, detach := q.Attach()
	defer detach()

	<-signal // initial sync
	q.Enqueue(Notification{Title: "A"})
	select {
	case <-signal:
	default:
		t.Fatal("expected change signal after enqueue")
	}
}

func TestQueue_Close(t *testing.T) {
	q, _ := newTestQueue()
	a := q.Enqueue(Notification{Title: "A"})
	b := q.Enqueue(Notification{Title: "B"})

	q.Close()
	assert.True(t, isDone(a))
	assert.True(t, isDone(b))
	assert.Equal(t, ReasonClosed, b.Reason())
	assert.Zero(t, q.Len())

	late := q.Enqueue(Notification{Title: "late"})
	assert.True(t, isDone(late))
	q.Close()
}

func TestTicket_WaitContext(t *testing.T) {
	q, _ := newTestQueue()
	tk := q.Enqueue(Notification{Title: "A"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tk.Wait(ctx), context.Canceled)
	assert.Equal(t, ReasonNone, tk.Reason())
}

func TestQueue_RealTimer(t *testing.T) {
	q := NewQueue(10 * time.Millisecond)
	_, detach := q.Attach()
	defer detach()

	tk := q.Enqueue(Notification{Title: "A"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tk.Wait(ctx))
	assert.Equal(t, ReasonTimeout, tk.Reason())
}
