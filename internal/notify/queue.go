package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is the display payload of an earned reward. Amounts are
// decided before enqueueing; the queue only sequences presentation.
type Notification struct {
	Title   string
	Message string
	XP      int
	Coins   int
	BadgeID string
	Source  string
}

// DismissReason records how a notification left the screen.
type DismissReason int

const (
	ReasonNone DismissReason = iota
	ReasonUser
	ReasonTimeout
	ReasonClosed
)

func (r DismissReason) String() string {
	switch r {
	case ReasonUser:
		return "user"
	case ReasonTimeout:
		return "timeout"
	case ReasonClosed:
		return "closed"
	default:
		return "none"
	}
}

// Ticket is the awaitable handle for one enqueued notification.
type Ticket struct {
	ID           string
	Notification Notification

	done   chan struct{}
	reason DismissReason
}

// Done is closed once this notification has been dismissed.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait blocks until the notification is dismissed or ctx ends. A timeout
// dismissal is not an error.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reason reports how the ticket was resolved. Only meaningful after Done.
func (t *Ticket) Reason() DismissReason {
	select {
	case <-t.done:
		return t.reason
	default:
		return ReasonNone
	}
}

// Timer is the subset of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithAfterFunc replaces time.AfterFunc, for deterministic tests.
func WithAfterFunc(f func(time.Duration, func()) Timer) Option {
	return func(q *Queue) { q.afterFunc = f }
}

// Queue shows reward notifications one at a time in enqueue order.
//
// It is session-scoped: display surfaces attach and detach, the queue
// and its contents outlive them. The auto-dismiss countdown for the
// current notification only runs while at least one surface is attached,
// so nothing times out unseen.
type Queue struct {
	mu        sync.Mutex
	timeout   time.Duration
	afterFunc func(time.Duration, func()) Timer

	pending []*Ticket
	current *Ticket
	timer   Timer
	// timerGen identifies the armed countdown; callbacks from a stopped
	// one compare unequal and do nothing.
	timerGen uint64

	surfaces    map[uint64]chan struct{}
	nextSurface uint64
	closed      bool
}

// NewQueue creates a queue. timeout <= 0 disables auto-dismiss.
func NewQueue(timeout time.Duration, opts ...Option) *Queue {
	q := &Queue{
		timeout: timeout,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		surfaces: make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends n to the tail and returns its ticket. It never blocks.
func (q *Queue) Enqueue(n Notification) *Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := &Ticket{ID: uuid.NewString(), Notification: n, done: make(chan struct{})}
	if q.closed {
		t.reason = ReasonClosed
		close(t.done)
		return t
	}

	q.pending = append(q.pending, t)
	q.advanceLocked()
	q.signalLocked()
	return t
}

// Current returns the notification being shown, if any.
func (q *Queue) Current() (*Ticket, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.current != nil
}

// Len returns the number of unresolved notifications, current included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.current != nil {
		n++
	}
	return n
}

// Dismiss resolves the current notification as a user action and
// promotes the next one. It reports whether anything was dismissed.
func (q *Queue) Dismiss() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return false
	}
	q.resolveCurrentLocked(ReasonUser)
	return true
}

// Attach registers a display surface. The returned channel receives a
// signal (coalesced) whenever the current notification changes; the
// surface then reads Current. detach must be called on unmount.
func (q *Queue) Attach() (<-chan struct{}, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextSurface++
	id := q.nextSurface
	ch := make(chan struct{}, 1)
	q.surfaces[id] = ch
	ch <- struct{}{}
	q.armLocked()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			delete(q.surfaces, id)
			if len(q.surfaces) == 0 {
				q.stopTimerLocked()
			}
		})
	}
	return ch, detach
}

// Close resolves every outstanding ticket with ReasonClosed. Later
// enqueues resolve immediately.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.stopTimerLocked()

	if q.current != nil {
		q.current.reason = ReasonClosed
		close(q.current.done)
		q.current = nil
	}
	for _, t := range q.pending {
		t.reason = ReasonClosed
		close(t.done)
	}
	q.pending = nil
	q.signalLocked()
}

// advanceLocked promotes the head of the queue when nothing is current.
func (q *Queue) advanceLocked() {
	if q.current != nil || len(q.pending) == 0 {
		return
	}
	q.current = q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.armLocked()
}

// armLocked starts the countdown for the current notification if a
// surface is showing it and no countdown is running.
func (q *Queue) armLocked() {
	if q.current == nil || q.timer != nil || q.timeout <= 0 || len(q.surfaces) == 0 {
		return
	}
	q.timerGen++
	t, gen := q.current, q.timerGen
	q.timer = q.afterFunc(q.timeout, func() { q.expire(t, gen) })
}

func (q *Queue) expire(t *Ticket, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	// A late callback from a stopped countdown, for a notification that is
	// no longer current, or while every surface is detached, is a no-op.
	if q.timer == nil || gen != q.timerGen || q.current != t || len(q.surfaces) == 0 {
		return
	}
	q.resolveCurrentLocked(ReasonTimeout)
}

func (q *Queue) resolveCurrentLocked(reason DismissReason) {
	q.stopTimerLocked()
	t := q.current
	t.reason = reason
	close(t.done)
	q.current = nil
	q.advanceLocked()
	q.signalLocked()
}

func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
		q.timerGen++
	}
}

func (q *Queue) signalLocked() {
	for _, ch := range q.surfaces {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
