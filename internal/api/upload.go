package api

import (
	"encoding/json"
	"errors"
	"mime"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

func (s *Api) uploadHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.UploadParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UPLOAD, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_UPLOAD, nil, errors.New("session not found")
	}
	if len(m.Files) == 0 {
		return common.UPDATE_UPLOAD, nil, errors.New("files are required")
	}

	fs := afero.NewOsFs()
	var (
		files    []draftlib.File
		altTexts []string
		rejected []string
	)
	for _, fp := range m.Files {
		mimeType := fp.Mime
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(fp.Path))
		}
		f, err := draftlib.NewFile(fs, fp.Path, mimeType)
		if err != nil {
			rejected = append(rejected, fp.Path)
			s.log.Println("open upload payload:", err.Error())
			continue
		}
		files = append(files, f)
		altTexts = append(altTexts, fp.AltText)
	}

	accepted := sess.queue.AddToQueue(files, altTexts)
	if len(accepted) > 0 {
		go sess.queue.ProcessQueue(sess.ctx)
	}
	return common.UPDATE_UPLOAD, &common.UploadResponse{
		SessionId: sess.id,
		Accepted:  accepted,
		Rejected:  rejected,
	}, nil
}

func (s *Api) uploadRetryHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.UploadTaskParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UPLOAD_RETRY, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_UPLOAD_RETRY, nil, errors.New("session not found")
	}
	if err := sess.queue.RetryUpload(sess.ctx, m.TaskId); err != nil {
		return common.UPDATE_UPLOAD_RETRY, nil, err
	}
	return common.UPDATE_UPLOAD_RETRY, &common.UploadTaskParams{
		SessionId: sess.id,
		TaskId:    m.TaskId,
	}, nil
}

func (s *Api) uploadRemoveHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.UploadTaskParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UPLOAD_DROP, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_UPLOAD_DROP, nil, errors.New("session not found")
	}
	if err := sess.queue.RemoveFromQueue(m.TaskId); err != nil {
		return common.UPDATE_UPLOAD_DROP, nil, err
	}
	return common.UPDATE_UPLOAD_DROP, &common.UploadTaskParams{
		SessionId: sess.id,
		TaskId:    m.TaskId,
	}, nil
}

func (s *Api) uploadClearHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UPLOAD_CLEAR, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_UPLOAD_CLEAR, nil, errors.New("session not found")
	}
	cleared := sess.queue.ClearCompleted()
	return common.UPDATE_UPLOAD_CLEAR, map[string]int{"cleared": cleared}, nil
}

func (s *Api) uploadListHandler(_ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputSessionId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UPLOAD_LIST, nil, err
	}
	sess, ok := s.getSession(m.SessionId)
	if !ok {
		return common.UPDATE_UPLOAD_LIST, nil, errors.New("session not found")
	}
	tasks := sess.queue.Tasks()
	items := make([]*draftlib.UploadTask, len(tasks))
	for i := range tasks {
		items[i] = &tasks[i]
	}
	return common.UPDATE_UPLOAD_LIST, &common.UploadListResponse{
		SessionId: sess.id,
		Items:     items,
	}, nil
}
