package draftlib

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestTimerController_DebounceRestarts verifies the trailing-debounce
// contract: repeated arms within the delay window restart the countdown,
// so only the last arm of a burst fires.
func TestTimerController_DebounceRestarts(t *testing.T) {
	tc := NewTimerController()
	var fired atomic.Int32

	for i := 0; i < 5; i++ {
		tc.ArmDebounce(40*time.Millisecond, func() { fired.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}

	// 25ms after the last arm nothing may have fired yet.
	time.Sleep(25 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Fatalf("debounce fired %d times before the quiet period elapsed", n)
	}

	time.Sleep(40 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expected exactly 1 debounce fire, got %d", n)
	}
}

// TestTimerController_MaxWaitNotReset verifies that re-arming the
// max-wait timer while one is pending is a no-op: the original deadline
// holds.
func TestTimerController_MaxWaitNotReset(t *testing.T) {
	tc := NewTimerController()
	var fired atomic.Int32

	if !tc.ArmMaxWait(60*time.Millisecond, func() { fired.Add(1) }) {
		t.Fatal("first ArmMaxWait should arm a timer")
	}
	for i := 0; i < 4; i++ {
		time.Sleep(10 * time.Millisecond)
		if tc.ArmMaxWait(60*time.Millisecond, func() { fired.Add(1) }) {
			t.Fatal("ArmMaxWait re-armed while a timer was pending")
		}
	}

	// Original deadline was 60ms ago +40ms of sleeps; wait it out.
	time.Sleep(40 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expected exactly 1 max-wait fire, got %d", n)
	}
	if tc.MaxWaitArmed() {
		t.Fatal("max-wait should be clear after firing")
	}
}

// TestTimerController_CancelAll verifies that no callback runs after
// CancelAll, and that CancelAll is idempotent.
func TestTimerController_CancelAll(t *testing.T) {
	tc := NewTimerController()
	var fired atomic.Int32

	tc.ArmDebounce(20*time.Millisecond, func() { fired.Add(1) })
	tc.ArmMaxWait(20*time.Millisecond, func() { fired.Add(1) })
	tc.CancelAll()
	tc.CancelAll()

	time.Sleep(50 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Fatalf("callbacks fired %d times after CancelAll", n)
	}
}

// TestTimerController_RearmAfterCancel verifies the controller is
// reusable after cancellation.
func TestTimerController_RearmAfterCancel(t *testing.T) {
	tc := NewTimerController()
	var fired atomic.Int32

	tc.ArmDebounce(10*time.Millisecond, func() { fired.Add(1) })
	tc.CancelAll()
	tc.ArmDebounce(10*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(40 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expected exactly 1 fire after re-arm, got %d", n)
	}
}
