// Package presenter runs presentation callbacks on a single designated goroutine.
//
// Workflows in the tmdb package block their own goroutine on network I/O. Their
// observer callbacks are posted to a Loop instead of being run inline, so UI state
// is only ever touched from the loop goroutine and in the order the events happened.
package presenter

import (
	"sync"

	"github.com/rs/zerolog"
)

// Loop is a single goroutine draining a FIFO queue of callbacks
type Loop struct {
	logger zerolog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	stopped chan struct{}
}

// NewLoop starts a loop goroutine
func NewLoop(logger zerolog.Logger) *Loop {
	l := &Loop{
		logger:  logger,
		stopped: make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)

	go l.run()
	return l
}

// Post queues fn to run on the loop goroutine. It never blocks on fn.
// Post returns false once the loop has been closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.logger.Debug().Msg("Dropping callback posted after close")
		return false
	}

	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Sync blocks until every callback posted before it has run
func (l *Loop) Sync() {
	done := make(chan struct{})
	if l.Post(func() { close(done) }) {
		<-done
	}
}

// Close stops accepting callbacks, runs the ones already queued and waits for the loop to exit
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()

	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Presenter callback panicked")
		}
	}()
	fn()
}
