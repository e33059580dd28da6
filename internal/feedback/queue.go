package feedback

import (
	"context"
	"sync"
	"sync/atomic"
)

// Notifier performs the actual playback of a notification. Notify may block
// for as long as playback takes.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Accepted  uint64 `json:"accepted"`
	Dropped   uint64 `json:"dropped"`
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
}

// Queue delivers notifications to a Notifier from a single background
// worker, so at most one playback is in flight. Enqueue never blocks: when
// the buffer is full the notification is dropped and counted.
type Queue struct {
	notifier Notifier
	ch       chan Notification

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex // guards send against close
	wg        sync.WaitGroup

	accepted  atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewQueue returns a queue holding up to size pending notifications.
// Start must be called before anything is delivered.
func NewQueue(n Notifier, size int) *Queue {
	if size < 0 {
		size = 0
	}
	return &Queue{notifier: n, ch: make(chan Notification, size)}
}

// Start launches the delivery worker. Playback runs with a context that
// carries ctx's values but not its cancellation: a stop signal ends the
// session, while the playback in progress and the notifications already
// queued still complete. The worker exits once Close has been called and
// the buffer is drained.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		q.wg.Add(1)
		go q.run(context.WithoutCancel(ctx))
	})
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for n := range q.ch {
		if err := q.notifier.Notify(ctx, n); err != nil {
			q.failed.Add(1)
			logf("playback of %q failed: %v", n.Tag, err)
			continue
		}
		q.delivered.Add(1)
	}
}

// Enqueue implements Sink.
func (q *Queue) Enqueue(n Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		q.dropped.Add(1)
		return false
	}
	select {
	case q.ch <- n:
		q.accepted.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Close stops accepting notifications. Already queued ones are still
// delivered.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed.Store(true)
		close(q.ch)
		q.mu.Unlock()
	})
}

// Wait blocks until the worker has exited. Call Close first.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Stats returns the current counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Accepted:  q.accepted.Load(),
		Dropped:   q.dropped.Load(),
		Delivered: q.delivered.Load(),
		Failed:    q.failed.Load(),
	}
}
