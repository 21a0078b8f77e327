package draftcli

import (
	"encoding/json"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

func invoke[T any](c *Client, method common.UpdateType, message any) (*T, error) {
	resp, err := c.invoke(method, message)
	if err != nil {
		return nil, err
	}
	var d T
	return &d, json.Unmarshal(resp, &d)
}

// EditOpenOpts carries the optional knobs for opening a session.
type EditOpenOpts struct {
	Content          string `json:"content,omitempty"`
	DebounceSeconds  int    `json:"debounce_seconds,omitempty"`
	MaxWaitSeconds   int    `json:"max_wait_seconds,omitempty"`
	DiscardRecovered bool   `json:"discard_recovered,omitempty"`
}

func (c *Client) EditOpen(documentId, version string, opts *EditOpenOpts) (*common.EditOpenResponse, error) {
	if opts == nil {
		opts = &EditOpenOpts{}
	}
	return invoke[common.EditOpenResponse](c, common.UPDATE_EDIT_OPEN, &common.EditOpenParams{
		DocumentId:       documentId,
		Version:          version,
		Content:          opts.Content,
		DebounceSeconds:  opts.DebounceSeconds,
		MaxWaitSeconds:   opts.MaxWaitSeconds,
		DiscardRecovered: opts.DiscardRecovered,
	})
}

func (c *Client) MarkDirty(sessionId, content string) (*common.EditStatusResponse, error) {
	return invoke[common.EditStatusResponse](c, common.UPDATE_EDIT_MARK, &common.EditMarkParams{
		SessionId: sessionId,
		Content:   content,
	})
}

func (c *Client) Save(sessionId string) (*common.EditSaveResponse, error) {
	return invoke[common.EditSaveResponse](c, common.UPDATE_EDIT_SAVE, &common.InputSessionId{SessionId: sessionId})
}

func (c *Client) Status(sessionId string) (*common.EditStatusResponse, error) {
	return invoke[common.EditStatusResponse](c, common.UPDATE_EDIT_STATUS, &common.InputSessionId{SessionId: sessionId})
}

func (c *Client) CloseSession(sessionId string) (bool, error) {
	_, err := c.invoke(common.UPDATE_EDIT_CLOSE, &common.InputSessionId{SessionId: sessionId})
	return err == nil, err
}

// Attach subscribes this client's connection to a session's broadcast
// updates; consume them with Listen.
func (c *Client) Attach(sessionId string) (*common.EditStatusResponse, error) {
	return invoke[common.EditStatusResponse](c, common.UPDATE_ATTACH, &common.InputSessionId{SessionId: sessionId})
}

func (c *Client) Upload(sessionId string, files []common.UploadFileParam) (*common.UploadResponse, error) {
	return invoke[common.UploadResponse](c, common.UPDATE_UPLOAD, &common.UploadParams{
		SessionId: sessionId,
		Files:     files,
	})
}

func (c *Client) RetryUpload(sessionId, taskId string) (bool, error) {
	_, err := c.invoke(common.UPDATE_UPLOAD_RETRY, &common.UploadTaskParams{SessionId: sessionId, TaskId: taskId})
	return err == nil, err
}

func (c *Client) RemoveUpload(sessionId, taskId string) (bool, error) {
	_, err := c.invoke(common.UPDATE_UPLOAD_DROP, &common.UploadTaskParams{SessionId: sessionId, TaskId: taskId})
	return err == nil, err
}

func (c *Client) ClearUploads(sessionId string) (bool, error) {
	_, err := c.invoke(common.UPDATE_UPLOAD_CLEAR, &common.InputSessionId{SessionId: sessionId})
	return err == nil, err
}

func (c *Client) ListUploads(sessionId string) (*common.UploadListResponse, error) {
	return invoke[common.UploadListResponse](c, common.UPDATE_UPLOAD_LIST, &common.InputSessionId{SessionId: sessionId})
}

// ScanOpts carries the optional knobs for a resource health scan.
type ScanOpts struct {
	Concurrency    int64 `json:"concurrency,omitempty"`
	TimeoutSeconds int   `json:"timeout_seconds,omitempty"`
}

func (c *Client) Scan(sessionId string, docs []draftlib.Document, opts *ScanOpts) (*common.ScanResponse, error) {
	if opts == nil {
		opts = &ScanOpts{}
	}
	return invoke[common.ScanResponse](c, common.UPDATE_SCAN, &common.ScanParams{
		SessionId:      sessionId,
		Documents:      docs,
		Concurrency:    opts.Concurrency,
		TimeoutSeconds: opts.TimeoutSeconds,
	})
}

func (c *Client) ResetScan(sessionId string) (bool, error) {
	_, err := c.invoke(common.UPDATE_SCAN_RESET, &common.InputSessionId{SessionId: sessionId})
	return err == nil, err
}

func (c *Client) ScheduleScan(sessionId, cron string) (*common.ScanCronResponse, error) {
	return invoke[common.ScanCronResponse](c, common.UPDATE_SCAN_CRON, &common.ScanCronParams{
		SessionId: sessionId,
		Cron:      cron,
	})
}

func (c *Client) GetDaemonVersion() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, common.UPDATE_VERSION, nil)
}
