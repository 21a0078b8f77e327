package draftlib

import (
	"sync"
	"time"
)

// TimerController owns the two wall-clock timers behind the auto-save
// scheduler: a trailing debounce timer that restarts on every arm, and an
// absolute max-wait deadline that stays fixed once armed. Generation
// counters act as cancellation tokens so a callback whose timer already
// fired is dropped after CancelAll, never delivered late.
type TimerController struct {
	mu       sync.Mutex
	debounce *time.Timer
	maxWait  *time.Timer
	debGen   uint64
	maxGen   uint64
}

// NewTimerController returns a TimerController with no timers armed.
func NewTimerController() *TimerController {
	return &TimerController{}
}

// ArmDebounce schedules fn to run once, d after this call. Any previously
// armed debounce timer is cancelled first, so only the last call of a
// burst fires.
func (tc *TimerController) ArmDebounce(d time.Duration, fn func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.debounce != nil {
		tc.debounce.Stop()
	}
	tc.debGen++
	gen := tc.debGen
	tc.debounce = time.AfterFunc(d, func() {
		tc.mu.Lock()
		if gen != tc.debGen {
			tc.mu.Unlock()
			return
		}
		tc.debounce = nil
		tc.mu.Unlock()
		fn()
	})
}

// ArmMaxWait schedules fn to run once, d after this call, unless a
// max-wait timer is already pending. Unlike the debounce timer, repeated
// arms do not reset the countdown. It reports whether a new timer was
// armed.
func (tc *TimerController) ArmMaxWait(d time.Duration, fn func()) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.maxWait != nil {
		return false
	}
	tc.maxGen++
	gen := tc.maxGen
	tc.maxWait = time.AfterFunc(d, func() {
		tc.mu.Lock()
		if gen != tc.maxGen {
			tc.mu.Unlock()
			return
		}
		tc.maxWait = nil
		tc.mu.Unlock()
		fn()
	})
	return true
}

// MaxWaitArmed reports whether a max-wait timer is currently pending.
func (tc *TimerController) MaxWaitArmed() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.maxWait != nil
}

// CancelAll clears both timers. It is idempotent, and the generation
// bump guarantees that a callback already dispatched by the runtime
// observes the cancellation and returns without running fn.
func (tc *TimerController) CancelAll() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.debounce != nil {
		tc.debounce.Stop()
		tc.debounce = nil
	}
	if tc.maxWait != nil {
		tc.maxWait.Stop()
		tc.maxWait = nil
	}
	tc.debGen++
	tc.maxGen++
}
