package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/scheduler"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

func (s *Api) scanHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ScanParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SCAN, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_SCAN, nil, errors.New("session not found")
	}
	if len(m.Documents) == 0 {
		return common.UPDATE_SCAN, nil, errors.New("documents are required")
	}

	total, err := s.startScan(sess, m.Documents, m.Concurrency, time.Duration(m.TimeoutSeconds)*time.Second)
	if err != nil {
		return common.UPDATE_SCAN, nil, err
	}
	return common.UPDATE_SCAN, &common.ScanResponse{
		SessionId: sess.id,
		Total:     total,
	}, nil
}

// startScan builds a fresh scanner over the document collection and
// probes it in the background; progress flows through the broadcast
// pool. Only one scan per session runs at a time.
func (s *Api) startScan(sess *session, docs []draftlib.Document, concurrency int64, timeout time.Duration) (int, error) {
	sess.mu.Lock()
	if sess.scanner != nil && sess.scanner.Scanning() {
		sess.mu.Unlock()
		return 0, draftlib.ErrScanInProgress
	}
	scanner := draftlib.NewResourceHealthScanner(s.log, docs, &draftlib.ScannerOpts{
		Probe:       draftlib.NewHeadProbe(s.client),
		Timeout:     timeout,
		Concurrency: concurrency,
		Handlers:    s.scanHandlers(sess.id),
	})
	sess.scanner = scanner
	sess.lastDocs = docs
	sess.lastConcurrency = concurrency
	sess.mu.Unlock()

	total := scanner.UniqueURLs()
	go func() {
		if _, err := scanner.Scan(sess.ctx); err != nil && !errors.Is(err, draftlib.ErrScanInProgress) {
			s.log.Println("scan:", err.Error())
		}
	}()
	return total, nil
}

// rescan replays the session's last scan request. Used by the
// recurring-scan scheduler.
func (s *Api) rescan(sessionId string) error {
	sess, ok := s.getSession(sessionId)
	if !ok {
		return errors.New("session not found")
	}
	sess.mu.Lock()
	docs := sess.lastDocs
	concurrency := sess.lastConcurrency
	sess.mu.Unlock()
	if len(docs) == 0 {
		return errors.New("no previous scan to repeat")
	}
	_, err := s.startScan(sess, docs, concurrency, 0)
	return err
}

func (s *Api) scanResetHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SCAN_RESET, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_SCAN_RESET, nil, errors.New("session not found")
	}
	sess.mu.Lock()
	scanner := sess.scanner
	sess.mu.Unlock()
	if scanner != nil {
		scanner.Reset()
	}
	if s.scans != nil {
		s.scans.Remove(sess.id)
	}
	return common.UPDATE_SCAN_RESET, &common.InputSessionId{SessionId: sess.id}, nil
}

func (s *Api) scanCronHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ScanCronParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SCAN_CRON, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_SCAN_CRON, nil, errors.New("session not found")
	}
	if s.scans == nil {
		return common.UPDATE_SCAN_CRON, nil, errors.New("scheduler not running")
	}
	now := time.Now()
	if !scheduler.ValidateCron(m.Cron, now) {
		return common.UPDATE_SCAN_CRON, nil, errors.New("invalid cron expression: " + m.Cron)
	}
	next, err := scheduler.NextOccurrence(m.Cron, now)
	if err != nil {
		return common.UPDATE_SCAN_CRON, nil, err
	}
	// one recurring schedule per session
	s.scans.Remove(sess.id)
	s.scans.Add(scheduler.ScheduleEvent{
		SessionId: sess.id,
		TriggerAt: next,
		CronExpr:  m.Cron,
	})
	return common.UPDATE_SCAN_CRON, &common.ScanCronResponse{
		SessionId: sess.id,
		NextRun:   next,
	}, nil
}
