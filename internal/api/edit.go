package api

import (
	"encoding/json"
	"errors"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

func (s *Api) editOpenHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.EditOpenParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EDIT_OPEN, nil, err
	}

	sess := s.newSession(pool, &m)
	s.sessions.Set(sess.id, sess)
	pool.AddSession(sess.id, nil)
	if sconn != nil {
		pool.AddConn(sess.id, sconn.Conn)
	}

	resp := &common.EditOpenResponse{
		SessionId:  sess.id,
		DocumentId: m.DocumentId,
		Version:    m.Version,
	}

	// surface a leftover draft from a previous crash so the client can
	// choose between it and the server copy
	if m.DocumentId != "" {
		if m.DiscardRecovered {
			if err := s.store.DeleteDraft(sess.ctx, m.DocumentId); err != nil {
				s.log.Println("discard draft:", err.Error())
			}
		} else {
			content, savedAt, err := s.store.LoadDraft(sess.ctx, m.DocumentId)
			if err == nil {
				resp.Recovered = content
				resp.RecoveredAt = savedAt
				resp.HasRecovered = true
			} else if !errors.Is(err, draftlib.ErrDraftNotFound) {
				s.log.Println("load draft:", err.Error())
			}
		}
	}
	return common.UPDATE_EDIT_OPEN, resp, nil
}

func (s *Api) editMarkHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.EditMarkParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EDIT_MARK, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_EDIT_MARK, nil, errors.New("session not found")
	}
	sess.setContent(m.Content)
	sess.scheduler.MarkDirty()
	return common.UPDATE_EDIT_MARK, &common.EditStatusResponse{
		SessionId:  sess.id,
		DocumentId: sess.scheduler.DocumentID(),
		Status:     string(sess.scheduler.Status()),
		Dirty:      sess.scheduler.Dirty(),
		Version:    sess.scheduler.LastSavedVersion(),
	}, nil
}

func (s *Api) editSaveHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EDIT_SAVE, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_EDIT_SAVE, nil, errors.New("session not found")
	}
	if err := sess.scheduler.TriggerSave(sess.ctx); err != nil {
		return common.UPDATE_EDIT_SAVE, nil, err
	}
	return common.UPDATE_EDIT_SAVE, &common.EditSaveResponse{
		SessionId: sess.id,
		Status:    string(sess.scheduler.Status()),
		Version:   sess.scheduler.LastSavedVersion(),
	}, nil
}

func (s *Api) editStatusHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EDIT_STATUS, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_EDIT_STATUS, nil, errors.New("session not found")
	}
	return common.UPDATE_EDIT_STATUS, &common.EditStatusResponse{
		SessionId:  sess.id,
		DocumentId: sess.scheduler.DocumentID(),
		Status:     string(sess.scheduler.Status()),
		Dirty:      sess.scheduler.Dirty(),
		Version:    sess.scheduler.LastSavedVersion(),
		Uploads:    sess.queue.StatusString(),
	}, nil
}

func (s *Api) editCloseHandler(_ *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_EDIT_CLOSE, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_EDIT_CLOSE, nil, errors.New("session not found")
	}

	// saved sessions discard their crash draft on the way out
	docID := sess.scheduler.DocumentID()
	if docID != "" && sess.scheduler.Status() == draftlib.SaveSaved && !sess.scheduler.Dirty() {
		if err := s.store.DeleteDraft(sess.ctx, docID); err != nil {
			s.log.Println("delete draft:", err.Error())
		}
	}

	sess.close()
	s.sessions.Delete(sess.id)
	if s.scans != nil {
		s.scans.Remove(sess.id)
	}
	pool.RemoveSession(sess.id)
	return common.UPDATE_EDIT_CLOSE, &common.InputSessionId{SessionId: sess.id}, nil
}

func (s *Api) attachHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_ATTACH, nil, err
	}
	if m.SessionId == "" {
		return common.UPDATE_ATTACH, nil, errors.New("session_id is required")
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_ATTACH, nil, errors.New("session not found")
	}
	pool.AddConn(sess.id, sconn.Conn)
	return common.UPDATE_ATTACH, &common.EditStatusResponse{
		SessionId:  sess.id,
		DocumentId: sess.scheduler.DocumentID(),
		Status:     string(sess.scheduler.Status()),
		Dirty:      sess.scheduler.Dirty(),
		Version:    sess.scheduler.LastSavedVersion(),
		Uploads:    sess.queue.StatusString(),
	}, nil
}
