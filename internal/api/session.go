package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

// session binds one editing session's save scheduler, upload queue and
// scanner together under a single id. The daemon holds the canonical
// content snapshot: clients push content with every mark-dirty request
// and the scheduler reads it back at snapshot time.
type session struct {
	id string

	mu      sync.Mutex
	content string

	// last scan request, replayed by the recurring-scan scheduler
	lastDocs        []draftlib.Document
	lastConcurrency int64

	scheduler *draftlib.SaveScheduler
	queue     *draftlib.UploadQueue
	scanner   *draftlib.ResourceHealthScanner

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *Api) newSession(pool *server.Pool, p *common.EditOpenParams) *session {
	sess := &session{
		id:      uuid.NewString(),
		content: p.Content,
	}
	sess.ctx, sess.cancel = context.WithCancel(context.Background())

	debounce := time.Duration(p.DebounceSeconds) * time.Second
	maxWait := time.Duration(p.MaxWaitSeconds) * time.Second
	endpoint := draftlib.NewSaveEndpoint(s.client, s.cfg.SaveURL, s.cfg.Token, s.cfg.SaveTimeout)

	sess.scheduler = draftlib.NewSaveScheduler(s.log, &draftlib.SaveSchedulerOpts{
		DocumentID:       p.DocumentId,
		ExpectedVersion:  p.Version,
		DebounceInterval: debounce,
		MaxWaitInterval:  maxWait,
		Save:             endpoint.Save,
		Content:          sess.snapshot,
		Fallback:         s.store,
		Handlers: &draftlib.SaveHandlers{
			StatusHandler: func(_ string, status draftlib.SaveStatus) {
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.SaveStatus,
					Status:    string(status),
				})
				s.notify("session.save", &server.SaveStateNotification{
					SessionId: sess.id,
					Status:    string(status),
				})
			},
			CompleteHandler: func(_ string, newVersion string) {
				pool.ClearError(sess.id)
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.SaveComplete,
					Status:    string(draftlib.SaveSaved),
					Version:   newVersion,
				})
				s.notify("session.save", &server.SaveStateNotification{
					SessionId: sess.id,
					Status:    string(draftlib.SaveSaved),
					Version:   newVersion,
				})
			},
			ErrorHandler: func(_ string, kind draftlib.SaveErrorKind, err error) {
				errType := server.ErrorTypeWarning
				if kind == draftlib.SaveErrStale || kind == draftlib.SaveErrUnauthorized {
					errType = server.ErrorTypeCritical
				}
				pool.WriteError(sess.id, errType, err.Error())
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.SaveFailed,
					Status:    string(kind),
					Message:   err.Error(),
				})
				s.notify("session.save", &server.SaveStateNotification{
					SessionId: sess.id,
					Status:    string(kind),
					Error:     err.Error(),
				})
			},
		},
	})

	uploader := draftlib.NewUploadEndpoint(s.client, s.cfg.UploadURL, s.cfg.Token)
	sess.queue = draftlib.NewUploadQueue(s.log, &draftlib.UploadQueueOpts{
		Upload:    uploader.Upload,
		Transform: draftlib.GzipTransform{},
		Handlers: &draftlib.UploadHandlers{
			StateHandler: func(taskID string, status draftlib.UploadStatus) {
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.UploadState,
					TaskId:    taskID,
					Status:    string(status),
				})
			},
			ProgressHandler: func(taskID string, pct int) {
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.UploadProgress,
					TaskId:    taskID,
					Value:     int64(pct),
				})
				s.notify("session.upload", &server.UploadProgressNotification{
					SessionId: sess.id,
					TaskId:    taskID,
					Status:    string(draftlib.UploadUploading),
					Progress:  int64(pct),
				})
			},
			CompleteHandler: func(taskID, url, altText string) {
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.UploadComplete,
					TaskId:    taskID,
					Url:       url,
					AltText:   altText,
				})
				s.notify("session.upload", &server.UploadProgressNotification{
					SessionId: sess.id,
					TaskId:    taskID,
					Status:    string(draftlib.UploadSuccess),
					Progress:  100,
					Url:       url,
				})
			},
			DrainedHandler: func(completed, total int) {
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.UploadDrained,
					Checked:   completed,
					Total:     total,
				})
			},
			ErrorHandler: func(taskID string, err error) {
				pool.WriteError(sess.id, server.ErrorTypeWarning, err.Error())
				s.broadcast(sess.id, &common.SessionUpdate{
					SessionId: sess.id,
					Action:    common.UploadState,
					TaskId:    taskID,
					Status:    string(draftlib.UploadFailed),
					Message:   err.Error(),
				})
			},
		},
	})

	return sess
}

// scanHandlers wires a scanner's callbacks to the broadcast pool. A new
// set is built per scan because the scanner itself is rebuilt with each
// document collection.
func (s *Api) scanHandlers(sessionId string) *draftlib.ScanHandlers {
	return &draftlib.ScanHandlers{
		ProgressHandler: func(checked, total int) {
			s.broadcast(sessionId, &common.SessionUpdate{
				SessionId: sessionId,
				Action:    common.ScanProgress,
				Checked:   checked,
				Total:     total,
			})
			s.notify("session.scan", &server.ScanProgressNotification{
				SessionId: sessionId,
				Checked:   checked,
				Total:     total,
			})
		},
		ResultHandler: func(res draftlib.ScanResult) {
			r := res
			s.broadcast(sessionId, &common.SessionUpdate{
				SessionId: sessionId,
				Action:    common.ScanResult,
				Result:    &r,
			})
		},
		CompleteHandler: func(results []draftlib.ScanResult) {
			s.broadcast(sessionId, &common.SessionUpdate{
				SessionId: sessionId,
				Action:    common.ScanComplete,
				Checked:   len(results),
			})
		},
	}
}

func (sess *session) snapshot() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.content
}

func (sess *session) setContent(content string) {
	sess.mu.Lock()
	sess.content = content
	sess.mu.Unlock()
}

func (sess *session) close() {
	sess.cancel()
	sess.scheduler.Close()
}

func (s *Api) broadcast(sessionId string, u *common.SessionUpdate) {
	if s.pool == nil {
		return
	}
	if err := s.pool.Broadcast(sessionId, server.MakeResult(common.UPDATE_SESSION, u)); err != nil {
		s.log.Println("broadcast:", err.Error())
	}
}

func (s *Api) notify(method string, params any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(method, params)
}
