package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// Scheduler manages scheduled scan events using a min-heap. It runs a
// background goroutine that sleeps until the next event's trigger time,
// then calls the onTrigger callback with the session id.
type Scheduler struct {
	addChan    chan ScheduleEvent
	removeChan chan string
	ctx        context.Context
}

// New creates and starts a new Scheduler. The onTrigger callback is
// invoked when a scheduled event fires. The scheduler goroutine exits
// when ctx is cancelled.
func New(ctx context.Context, onTrigger func(string)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan ScheduleEvent, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a new schedule event.
func (s *Scheduler) Add(event ScheduleEvent) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Remove cancels every scheduled event for the given session.
func (s *Scheduler) Remove(sessionId string) {
	select {
	case s.removeChan <- sessionId:
	case <-s.ctx.Done():
	}
}

// run is the core scheduler goroutine. It maintains a min-heap of
// events and sleeps with a 60s max-sleep-cap. For recurring events
// (CronExpr != ""), after firing it computes the next occurrence and
// re-adds it to the heap automatically.
func (s *Scheduler) run(onTrigger func(string)) {
	h := &scheduleHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// no events, block indefinitely on the channels
			return nil
		}
		next := (*h)[0].TriggerAt
		dur := time.Until(next)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case sessionId := <-s.removeChan:
			heapRemoveBySession(h, sessionId)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				onTrigger(event.SessionId)
				if event.CronExpr != "" {
					next, err := NextOccurrence(event.CronExpr, time.Now())
					if err == nil {
						heapPush(h, ScheduleEvent{
							SessionId: event.SessionId,
							TriggerAt: next,
							CronExpr:  event.CronExpr,
						})
					}
				}
			}
			timerCh = resetTimer()
		}
	}
}

// NextOccurrence returns the next time the cron expression fires
// strictly after start.
func NextOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// ValidateCron reports whether expr is a valid cron expression with at
// least one occurrence within a year of now. Expressions that never
// fire again would sit in the heap forever.
func ValidateCron(expr string, now time.Time) bool {
	if !gronx.New().IsValid(expr) {
		return false
	}
	next, err := gronx.NextTickAfter(expr, now, false)
	if err != nil {
		return false
	}
	return next.Before(now.Add(365 * 24 * time.Hour))
}
