// Package schedule runs the bot's time-driven work: one-shot reminder
// deliveries and the recurring digest jobs. Nothing here touches
// conversation sessions; jobs read the store and write to the messaging
// boundary only.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Sender is the narrow messaging boundary jobs deliver through. The app
// layer backs it with the bot's async dispatcher.
type Sender interface {
	SendTo(ctx context.Context, chatID int64, text string) error
}

// Handle cancels a scheduled one-shot job. Cancel after the job fired is
// a no-op.
type Handle struct {
	stop func()
}

func (h Handle) Cancel() {
	if h.stop != nil {
		h.stop()
	}
}

// Scheduler fires callbacks at most once at a future instant. All pending
// timers die with the context the scheduler was built on.
type Scheduler struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// New binds the scheduler to the process lifecycle context: when ctx ends,
// pending jobs are dropped without firing.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{ctx: ctx}
}

// ScheduleOnce arranges for fn to run once at when. A when in the past
// fires immediately. fn receives the scheduler's lifecycle context.
func (s *Scheduler) ScheduleOnce(when time.Time, fn func(ctx context.Context)) Handle {
	cancelled := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(cancelled) }) }

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(time.Until(when))
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-cancelled:
		case <-timer.C:
			fn(s.ctx)
		}
	}()
	return Handle{stop: stop}
}

// Wait blocks until every pending goroutine has exited. Intended for
// shutdown and tests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
