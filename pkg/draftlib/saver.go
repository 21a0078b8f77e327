package draftlib

import (
	"context"
	"log"
	"sync"
	"time"
)

// SaveStatus is the renderable state of an editing session.
type SaveStatus string

const (
	SaveIdle         SaveStatus = "idle"
	SaveSaving       SaveStatus = "saving"
	SaveSaved        SaveStatus = "saved"
	SaveErrored      SaveStatus = "error"
	SaveStale        SaveStatus = "stale"
	SaveUnauthorized SaveStatus = "unauthorized"
)

// SaveFunc performs one save attempt against the persistence backend and
// returns the new version token on success. Failures should be returned
// as *SaveError so they classify precisely; anything else is classified
// by ClassifySaveError.
type SaveFunc func(ctx context.Context, documentID, content, expectedVersion string) (newVersion string, err error)

// ContentFunc snapshots the current editable content. It is called once
// per save attempt, immediately before the fallback write.
type ContentFunc func() string

// SaveSchedulerOpts configures a SaveScheduler.
type SaveSchedulerOpts struct {
	// DocumentID identifies the document on the backend. Empty means the
	// document has not been created yet and scheduling stays disabled
	// until SetDocument is called.
	DocumentID string
	// ExpectedVersion is the optimistic-concurrency token the caller
	// believes is current on the backend.
	ExpectedVersion string
	// DebounceInterval defaults to DEF_DEBOUNCE_INTERVAL.
	DebounceInterval time.Duration
	// MaxWaitInterval defaults to DEF_MAXWAIT_INTERVAL.
	MaxWaitInterval time.Duration
	// Save is required.
	Save SaveFunc
	// Content is required.
	Content ContentFunc
	// Fallback receives a draft write before every network attempt.
	// Nil disables the durable fallback.
	Fallback *FallbackStore
	Handlers *SaveHandlers
}

// SaveScheduler decides when to invoke the save endpoint for a single
// editable document and translates the result into a renderable status.
// One scheduler exists per editing session; Close must be called on
// session teardown so no timer can mutate state afterwards.
type SaveScheduler struct {
	l      *log.Logger
	timers *TimerController

	save     SaveFunc
	content  ContentFunc
	fallback *FallbackStore
	handlers *SaveHandlers

	debounceIn time.Duration
	maxWaitIn  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	documentID      string
	expectedVersion string
	lastSaved       string
	dirty           bool
	status          SaveStatus
	halted          bool
	inFlight        bool
	closed          bool
}

// NewSaveScheduler creates a scheduler in the idle state. The session
// context created here bounds every save attempt; Close cancels it.
func NewSaveScheduler(l *log.Logger, opts *SaveSchedulerOpts) *SaveScheduler {
	if opts.Handlers == nil {
		opts.Handlers = &SaveHandlers{}
	}
	opts.Handlers.setDefault(l)
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = DEF_DEBOUNCE_INTERVAL
	}
	if opts.MaxWaitInterval <= 0 {
		opts.MaxWaitInterval = DEF_MAXWAIT_INTERVAL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SaveScheduler{
		l:               l,
		timers:          NewTimerController(),
		save:            opts.Save,
		content:         opts.Content,
		fallback:        opts.Fallback,
		handlers:        opts.Handlers,
		debounceIn:      opts.DebounceInterval,
		maxWaitIn:       opts.MaxWaitInterval,
		ctx:             ctx,
		cancel:          cancel,
		documentID:      opts.DocumentID,
		expectedVersion: opts.ExpectedVersion,
		status:          SaveIdle,
	}
}

// MarkDirty records that local content changed and (re)arms the debounce
// timer. The first mark of a burst also arms the max-wait deadline, which
// later marks do not reset, so continuous editing cannot delay a save
// past the max-wait interval.
func (s *SaveScheduler) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	if s.halted || s.closed || s.documentID == "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.timers.ArmDebounce(s.debounceIn, s.autoSave)
	s.timers.ArmMaxWait(s.maxWaitIn, s.autoSave)
}

// TriggerSave attempts a save immediately, bypassing timers. It is a
// no-op when the session is halted (stale or unauthorized), the document
// has not been created yet, or a save is already in flight.
func (s *SaveScheduler) TriggerSave(ctx context.Context) error {
	s.mu.Lock()
	if s.halted {
		s.mu.Unlock()
		return ErrSessionHalted
	}
	if s.documentID == "" {
		s.mu.Unlock()
		return ErrNoDocument
	}
	s.mu.Unlock()
	return s.doSave(ctx)
}

// SetDocument assigns the backend identity of a freshly created document
// and enables scheduling. It also resets a stale/unauthorized halt, which
// is the "external reset" path (the caller reloaded the document and owns
// a trusted version token again).
func (s *SaveScheduler) SetDocument(documentID, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = documentID
	s.expectedVersion = version
	s.halted = false
	s.status = SaveIdle
}

// Status returns the current renderable status.
func (s *SaveScheduler) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Dirty reports whether local content has changed since the last
// successful save.
func (s *SaveScheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// DocumentID returns the backend document id, empty if not yet created.
func (s *SaveScheduler) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentID
}

// LastSavedVersion returns the version token of the most recent
// successful save, empty if none.
func (s *SaveScheduler) LastSavedVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Close tears down the session: both timers are cancelled and the session
// context aborts any in-flight save. Safe to call more than once.
func (s *SaveScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.timers.CancelAll()
	s.cancel()
}

// autoSave is the shared timer callback. Timer goroutines must never
// crash the process, so the attempt runs under safeGo.
func (s *SaveScheduler) autoSave() {
	safeGo(s.l, nil, "autosave", nil, func() {
		_ = s.doSave(s.ctx)
	})
}

// doSave is the save procedure shared by the timer path and TriggerSave.
// The dirty flag is consumed at snapshot time and restored on failure, so
// edits arriving while the request is in flight are never lost: they
// re-set dirty and re-arm the timers through MarkDirty as usual.
func (s *SaveScheduler) doSave(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.halted || s.documentID == "" || !s.dirty || s.inFlight {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	s.dirty = false
	s.status = SaveSaving
	docID := s.documentID
	version := s.expectedVersion
	s.mu.Unlock()

	content := s.content()

	// The saving callback fires strictly before the network call so the
	// UI can show a live spinner without a race window.
	s.handlers.StatusHandler(docID, SaveSaving)

	if s.fallback != nil {
		if err := s.fallback.WriteDraft(ctx, docID, content); err != nil {
			dlog(s.l, "%s: fallback draft write failed: %s", docID, err.Error())
		}
	}

	newVersion, err := s.save(ctx, docID, content, version)

	s.mu.Lock()
	if s.closed {
		// Session torn down while the request was in flight; drop the
		// result instead of mutating a disposed session.
		s.inFlight = false
		s.mu.Unlock()
		return err
	}
	if err == nil {
		s.status = SaveSaved
		s.lastSaved = newVersion
		s.expectedVersion = newVersion
		s.inFlight = false
		if !s.dirty {
			// Cancel while still holding the mutex: a MarkDirty racing
			// this save either sets dirty before the check above, or
			// arms its timers after the cancel. Scheduling resumes only
			// on the next MarkDirty.
			s.timers.CancelAll()
		}
		s.mu.Unlock()
		s.handlers.StatusHandler(docID, SaveSaved)
		s.handlers.CompleteHandler(docID, newVersion)
		return nil
	}

	kind := ClassifySaveError(err)
	s.dirty = true
	s.inFlight = false
	var status SaveStatus
	stopTimers := false
	switch kind {
	case SaveErrStale:
		// The version token is permanently distrusted; no automatic save
		// happens again until the session is externally reset.
		status = SaveStale
		s.halted = true
		stopTimers = true
	case SaveErrUnauthorized:
		status = SaveUnauthorized
		s.halted = true
		stopTimers = true
	case SaveErrTooLarge:
		// Validation failure: retrying the same content is pointless, so
		// the pending timers are dropped. The next MarkDirty (the user
		// changed something) schedules again.
		status = SaveErrored
		stopTimers = true
	default:
		// Transient failures keep the timers armed; the pending max-wait
		// deadline or the next MarkDirty retries.
		status = SaveErrored
	}
	s.status = status
	if stopTimers {
		// Same ordering rule as the success path: cancelling under the
		// mutex keeps a concurrent MarkDirty from losing its timers.
		s.timers.CancelAll()
	}
	s.mu.Unlock()

	s.handlers.StatusHandler(docID, status)
	s.handlers.ErrorHandler(docID, kind, err)
	return err
}
