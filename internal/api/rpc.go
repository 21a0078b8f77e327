package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

// RPCMethods builds the JSON-RPC method map served by the daemon's HTTP
// and WebSocket bridges. The methods share session state with the
// socket handlers.
func (s *Api) RPCMethods() handler.Map {
	return handler.Map{
		"system.getVersion": handler.New(s.rpcGetVersion),
		"edit.open":         handler.New(s.rpcEditOpen),
		"edit.markDirty":    handler.New(s.rpcEditMark),
		"edit.save":         handler.New(s.rpcEditSave),
		"edit.status":       handler.New(s.rpcEditStatus),
		"edit.close":        handler.New(s.rpcEditClose),
		"upload.list":       handler.New(s.rpcUploadList),
		"scan.run":          handler.New(s.rpcScanRun),
		"scan.schedule":     handler.New(s.rpcScanSchedule),
	}
}

func (s *Api) rpcSession(id string) (*session, error) {
	if id == "" {
		return nil, &jrpc2.Error{Code: server.CodeInvalidParams, Message: "missing required param: session_id"}
	}
	sess, ok := s.getSession(id)
	if !ok {
		return nil, &jrpc2.Error{Code: server.CodeSessionNotFound, Message: "session not found"}
	}
	return sess, nil
}

func (s *Api) rpcGetVersion(_ context.Context) (*common.VersionResponse, error) {
	return &common.VersionResponse{
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
		BuildType: s.cfg.BuildType,
	}, nil
}

func (s *Api) rpcEditOpen(_ context.Context, p *common.EditOpenParams) (*common.EditOpenResponse, error) {
	sess := s.newSession(s.pool, p)
	s.sessions.Set(sess.id, sess)
	if s.pool != nil {
		s.pool.AddSession(sess.id, nil)
	}
	resp := &common.EditOpenResponse{
		SessionId:  sess.id,
		DocumentId: p.DocumentId,
		Version:    p.Version,
	}
	if p.DocumentId != "" {
		if p.DiscardRecovered {
			_ = s.store.DeleteDraft(sess.ctx, p.DocumentId)
		} else if content, savedAt, err := s.store.LoadDraft(sess.ctx, p.DocumentId); err == nil {
			resp.Recovered = content
			resp.RecoveredAt = savedAt
			resp.HasRecovered = true
		}
	}
	return resp, nil
}

func (s *Api) rpcEditMark(_ context.Context, p *common.EditMarkParams) (*common.EditStatusResponse, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	sess.setContent(p.Content)
	sess.scheduler.MarkDirty()
	return s.rpcStatus(sess), nil
}

func (s *Api) rpcEditSave(_ context.Context, p *common.InputSessionId) (*common.EditSaveResponse, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	if err := sess.scheduler.TriggerSave(sess.ctx); err != nil {
		if errors.Is(err, draftlib.ErrSessionHalted) {
			return nil, &jrpc2.Error{Code: server.CodeSessionHalted, Message: err.Error()}
		}
		return nil, err
	}
	return &common.EditSaveResponse{
		SessionId: sess.id,
		Status:    string(sess.scheduler.Status()),
		Version:   sess.scheduler.LastSavedVersion(),
	}, nil
}

func (s *Api) rpcStatus(sess *session) *common.EditStatusResponse {
	return &common.EditStatusResponse{
		SessionId:  sess.id,
		DocumentId: sess.scheduler.DocumentID(),
		Status:     string(sess.scheduler.Status()),
		Dirty:      sess.scheduler.Dirty(),
		Version:    sess.scheduler.LastSavedVersion(),
		Uploads:    sess.queue.StatusString(),
	}
}

func (s *Api) rpcEditStatus(_ context.Context, p *common.InputSessionId) (*common.EditStatusResponse, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	return s.rpcStatus(sess), nil
}

func (s *Api) rpcEditClose(_ context.Context, p *common.InputSessionId) (*common.InputSessionId, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	sess.close()
	s.sessions.Delete(sess.id)
	if s.scans != nil {
		s.scans.Remove(sess.id)
	}
	if s.pool != nil {
		s.pool.RemoveSession(sess.id)
	}
	return &common.InputSessionId{SessionId: sess.id}, nil
}

func (s *Api) rpcUploadList(_ context.Context, p *common.InputSessionId) (*common.UploadListResponse, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	tasks := sess.queue.Tasks()
	items := make([]*draftlib.UploadTask, len(tasks))
	for i := range tasks {
		items[i] = &tasks[i]
	}
	return &common.UploadListResponse{SessionId: sess.id, Items: items}, nil
}

func (s *Api) rpcScanRun(_ context.Context, p *common.ScanParams) (*common.ScanResponse, error) {
	sess, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	if len(p.Documents) == 0 {
		return nil, &jrpc2.Error{Code: server.CodeInvalidParams, Message: "missing required param: documents"}
	}
	total, err := s.startScan(sess, p.Documents, p.Concurrency, time.Duration(p.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	return &common.ScanResponse{SessionId: sess.id, Total: total}, nil
}

func (s *Api) rpcScanSchedule(_ context.Context, p *common.ScanCronParams) (*common.ScanCronResponse, error) {
	_, err := s.rpcSession(p.SessionId)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(p)
	_, resp, err := s.scanCronHandler(nil, nil, body)
	if err != nil {
		return nil, err
	}
	return resp.(*common.ScanCronResponse), nil
}
