package scheduler

import "time"

// ScheduleEvent represents a pending scan in the scheduler heap.
type ScheduleEvent struct {
	// SessionId identifies the editing session to rescan when TriggerAt
	// is reached.
	SessionId string
	// TriggerAt is the wall-clock time when the scan should run.
	TriggerAt time.Time
	// CronExpr is the cron expression for recurring scans. Empty string
	// means one-shot, no re-scheduling after firing.
	CronExpr string
}
