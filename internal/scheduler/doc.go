// Package scheduler provides recurring scan scheduling for draftsync.
// It implements a single-goroutine scheduler using a min-heap of
// ScheduleEvents sorted by trigger time, with a 60-second max-sleep-cap
// to handle NTP steps, DST transitions, and system sleep (macOS
// monotonic clock pause).
//
// The scheduler is a daemon-level component: when an event fires it
// calls a registered OnTrigger callback with the owning session id, and
// the API layer runs a resource health scan through the normal scan
// flow. The heap is in-memory only and dies with the daemon.
package scheduler
