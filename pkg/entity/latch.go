package entity

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Latch joins a dynamic set of concurrent tasks. The counter is incremented
// before a task starts and decremented when it returns; onZero runs every
// time the counter drops back to zero.
type Latch struct {
	onZero func()

	mu sync.Mutex
	n  int
	g  errgroup.Group
}

// NewLatch creates a latch calling onZero on every drain.
func NewLatch(onZero func()) *Latch {
	return &Latch{onZero: onZero}
}

// Go runs tasks concurrently. All of them are counted before any starts, so
// a fast task cannot drain the latch while siblings are still pending.
func (l *Latch) Go(tasks ...func()) {
	if len(tasks) == 0 {
		return
	}
	l.mu.Lock()
	l.n += len(tasks)
	l.mu.Unlock()

	for _, task := range tasks {
		l.g.Go(func() error {
			defer l.done()
			task()
			return nil
		})
	}
}

// Pending returns the number of running tasks.
func (l *Latch) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Wait blocks until every task started so far has returned.
func (l *Latch) Wait() {
	_ = l.g.Wait()
}

func (l *Latch) done() {
	l.mu.Lock()
	l.n--
	zero := l.n == 0
	l.mu.Unlock()
	if zero && l.onZero != nil {
		l.onZero()
	}
}
