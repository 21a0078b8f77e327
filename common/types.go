package common

import (
	"time"

	"github.com/draftsync/draftsync/pkg/draftlib"
)

type InputSessionId struct {
	SessionId string `json:"session_id"`
}

type EditOpenParams struct {
	DocumentId       string `json:"document_id"`
	Version          string `json:"version"`
	Content          string `json:"content,omitempty"`
	DebounceSeconds  int    `json:"debounce_seconds,omitempty"`
	MaxWaitSeconds   int    `json:"max_wait_seconds,omitempty"`
	DiscardRecovered bool   `json:"discard_recovered,omitempty"`
}

type EditOpenResponse struct {
	SessionId    string    `json:"session_id"`
	DocumentId   string    `json:"document_id"`
	Version      string    `json:"version"`
	Recovered    string    `json:"recovered,omitempty"`
	RecoveredAt  time.Time `json:"recovered_at,omitempty"`
	HasRecovered bool      `json:"has_recovered,omitempty"`
}

type EditMarkParams struct {
	SessionId string `json:"session_id"`
	Content   string `json:"content"`
}

type EditSaveResponse struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
	Version   string `json:"version"`
}

type EditStatusResponse struct {
	SessionId  string `json:"session_id"`
	DocumentId string `json:"document_id"`
	Status     string `json:"status"`
	Dirty      bool   `json:"dirty"`
	Version    string `json:"version"`
	Uploads    string `json:"uploads,omitempty"`
}

type UploadFileParam struct {
	Path    string `json:"path"`
	Mime    string `json:"mime,omitempty"`
	AltText string `json:"alt_text,omitempty"`
}

type UploadParams struct {
	SessionId string            `json:"session_id"`
	Files     []UploadFileParam `json:"files"`
}

type UploadResponse struct {
	SessionId string   `json:"session_id"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected,omitempty"`
}

type UploadTaskParams struct {
	SessionId string `json:"session_id"`
	TaskId    string `json:"task_id"`
}

type UploadListResponse struct {
	SessionId string                 `json:"session_id"`
	Items     []*draftlib.UploadTask `json:"items"`
}

type ScanParams struct {
	SessionId      string              `json:"session_id"`
	Documents      []draftlib.Document `json:"documents"`
	Concurrency    int64               `json:"concurrency,omitempty"`
	TimeoutSeconds int                 `json:"timeout_seconds,omitempty"`
}

type ScanResponse struct {
	SessionId string `json:"session_id"`
	Total     int    `json:"total"`
}

type ScanCronParams struct {
	SessionId string `json:"session_id"`
	Cron      string `json:"cron"`
}

type ScanCronResponse struct {
	SessionId string    `json:"session_id"`
	NextRun   time.Time `json:"next_run"`
}

// SessionUpdate is the payload broadcast to attached clients whenever a
// session's save, upload or scan state changes. Fields are populated per
// Action; the rest stay at their zero values.
type SessionUpdate struct {
	SessionId string               `json:"session_id"`
	Action    SessionAction        `json:"action"`
	Status    string               `json:"status,omitempty"`
	Version   string               `json:"version,omitempty"`
	Message   string               `json:"message,omitempty"`
	TaskId    string               `json:"task_id,omitempty"`
	Value     int64                `json:"value,omitempty"`
	Url       string               `json:"url,omitempty"`
	AltText   string               `json:"alt_text,omitempty"`
	Checked   int                  `json:"checked,omitempty"`
	Total     int                  `json:"total,omitempty"`
	Result    *draftlib.ScanResult `json:"result,omitempty"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"build_type,omitempty"`
}
