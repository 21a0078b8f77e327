package draftlib

import "log"

type (
	// SaveStatusHandlerFunc is called on every save status transition.
	// The saving transition is delivered strictly before the network call
	// is issued; terminal transitions strictly after it resolves.
	SaveStatusHandlerFunc func(documentID string, status SaveStatus)
	// SaveCompleteHandlerFunc is called after a successful save with the
	// version token returned by the endpoint.
	SaveCompleteHandlerFunc func(documentID, newVersion string)
	// SaveErrorHandlerFunc is called after a failed save attempt with the
	// classified kind.
	SaveErrorHandlerFunc func(documentID string, kind SaveErrorKind, err error)

	// TaskStateHandlerFunc is called on every upload task status transition.
	TaskStateHandlerFunc func(taskID string, status UploadStatus)
	// TaskProgressHandlerFunc reports transmit progress in percent (0-100).
	TaskProgressHandlerFunc func(taskID string, pct int)
	// TaskCompleteHandlerFunc is called once per successfully uploaded task
	// with the resulting asset URL and the alt text carried through from
	// submission.
	TaskCompleteHandlerFunc func(taskID, url, altText string)
	// TaskRejectedHandlerFunc is called for files dropped at enqueue time
	// because their declared type failed validation.
	TaskRejectedHandlerFunc func(name, mimeType string)
	// QueueDrainedHandlerFunc is called when a ProcessQueue pass runs out
	// of pending tasks.
	QueueDrainedHandlerFunc func(completed, total int)
	// UploadErrorHandlerFunc is called when a task transitions to failed.
	UploadErrorHandlerFunc func(taskID string, err error)

	// ProbeProgressHandlerFunc is called after every individual probe
	// completes, regardless of outcome.
	ProbeProgressHandlerFunc func(checked, total int)
	// ProbeResultHandlerFunc is called for every non-healthy probe outcome.
	ProbeResultHandlerFunc func(res ScanResult)
	// ScanCompleteHandlerFunc is called once a scan pass has probed every
	// unique URL.
	ScanCompleteHandlerFunc func(results []ScanResult)
)

// SaveHandlers groups the SaveScheduler callbacks.
type SaveHandlers struct {
	StatusHandler   SaveStatusHandlerFunc
	CompleteHandler SaveCompleteHandlerFunc
	ErrorHandler    SaveErrorHandlerFunc
}

func (h *SaveHandlers) setDefault(l *log.Logger) {
	if h.StatusHandler == nil {
		h.StatusHandler = func(documentID string, status SaveStatus) {}
	}
	if h.CompleteHandler == nil {
		h.CompleteHandler = func(documentID, newVersion string) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(documentID string, kind SaveErrorKind, err error) {
			dlog(l, "%s: save error (%s): %s", documentID, kind, err.Error())
		}
	} else {
		errHandler := h.ErrorHandler
		h.ErrorHandler = func(documentID string, kind SaveErrorKind, err error) {
			dlog(l, "%s: save error (%s): %s", documentID, kind, err.Error())
			errHandler(documentID, kind, err)
		}
	}
}

// UploadHandlers groups the UploadQueue callbacks.
type UploadHandlers struct {
	StateHandler    TaskStateHandlerFunc
	ProgressHandler TaskProgressHandlerFunc
	CompleteHandler TaskCompleteHandlerFunc
	RejectedHandler TaskRejectedHandlerFunc
	DrainedHandler  QueueDrainedHandlerFunc
	ErrorHandler    UploadErrorHandlerFunc
}

func (h *UploadHandlers) setDefault(l *log.Logger) {
	if h.StateHandler == nil {
		h.StateHandler = func(taskID string, status UploadStatus) {}
	}
	if h.ProgressHandler == nil {
		h.ProgressHandler = func(taskID string, pct int) {}
	}
	if h.CompleteHandler == nil {
		h.CompleteHandler = func(taskID, url, altText string) {}
	}
	if h.RejectedHandler == nil {
		h.RejectedHandler = func(name, mimeType string) {
			dlog(l, "%s: rejected, unsupported type %s", name, mimeType)
		}
	}
	if h.DrainedHandler == nil {
		h.DrainedHandler = func(completed, total int) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(taskID string, err error) {
			dlog(l, "%s: upload error: %s", taskID, err.Error())
		}
	} else {
		errHandler := h.ErrorHandler
		h.ErrorHandler = func(taskID string, err error) {
			dlog(l, "%s: upload error: %s", taskID, err.Error())
			errHandler(taskID, err)
		}
	}
}

// ScanHandlers groups the ResourceHealthScanner callbacks.
type ScanHandlers struct {
	ProgressHandler ProbeProgressHandlerFunc
	ResultHandler   ProbeResultHandlerFunc
	CompleteHandler ScanCompleteHandlerFunc
}

func (h *ScanHandlers) setDefault(l *log.Logger) {
	if h.ProgressHandler == nil {
		h.ProgressHandler = func(checked, total int) {}
	}
	if h.ResultHandler == nil {
		h.ResultHandler = func(res ScanResult) {}
	}
	if h.CompleteHandler == nil {
		h.CompleteHandler = func(results []ScanResult) {}
	}
}
