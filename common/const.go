package common

type UpdateType string

const (
	UPDATE_EDIT_OPEN    UpdateType = "edit_open"
	UPDATE_EDIT_MARK    UpdateType = "edit_mark_dirty"
	UPDATE_EDIT_SAVE    UpdateType = "edit_save"
	UPDATE_EDIT_STATUS  UpdateType = "edit_status"
	UPDATE_EDIT_CLOSE   UpdateType = "edit_close"
	UPDATE_SESSION      UpdateType = "session"
	UPDATE_UPLOAD       UpdateType = "upload"
	UPDATE_UPLOAD_RETRY UpdateType = "upload_retry"
	UPDATE_UPLOAD_DROP  UpdateType = "upload_remove"
	UPDATE_UPLOAD_CLEAR UpdateType = "upload_clear"
	UPDATE_UPLOAD_LIST  UpdateType = "upload_list"
	UPDATE_SCAN         UpdateType = "scan"
	UPDATE_SCAN_RESET   UpdateType = "scan_reset"
	UPDATE_SCAN_CRON    UpdateType = "scan_schedule"
	UPDATE_ATTACH       UpdateType = "attach"
	UPDATE_VERSION      UpdateType = "version"
)

type SessionAction string

const (
	SaveStatus     SessionAction = "save_status"
	SaveComplete   SessionAction = "save_complete"
	SaveFailed     SessionAction = "save_failed"
	UploadState    SessionAction = "upload_state"
	UploadProgress SessionAction = "upload_progress"
	UploadComplete SessionAction = "upload_complete"
	UploadDrained  SessionAction = "upload_drained"
	ScanProgress   SessionAction = "scan_progress"
	ScanResult     SessionAction = "scan_result"
	ScanComplete   SessionAction = "scan_complete"
)

const TCPHost = "localhost"

// DefaultTCPPort is the daemon's TCP fallback port.
const DefaultTCPPort = 4227

// MaxMessageSize caps a single socket frame. Document content rides in
// frames, so the cap stays well above the content size limit.
const MaxMessageSize = 64 << 20
