package draftlib

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UploadStatus is the state machine position of one upload task.
type UploadStatus string

const (
	UploadPending     UploadStatus = "pending"
	UploadCompressing UploadStatus = "compressing"
	UploadUploading   UploadStatus = "uploading"
	UploadSuccess     UploadStatus = "success"
	UploadFailed      UploadStatus = "failed"
)

// UploadTask is one queued upload. Progress is meaningful only while the
// task is uploading; ResultURL is set only on success and Error only on
// failure.
type UploadTask struct {
	ID        string       `json:"id"`
	File      File         `json:"-"`
	FileName  string       `json:"file_name"`
	AltText   string       `json:"alt_text"`
	Status    UploadStatus `json:"status"`
	Progress  int          `json:"progress"`
	ResultURL string       `json:"result_url,omitempty"`
	Error     string       `json:"error,omitempty"`

	// retrying guards against two concurrent retries of the same task.
	retrying bool
}

// UploadFunc transmits one payload and returns the resulting asset URL.
// onProgress receives incremental percentages in [0,100].
type UploadFunc func(ctx context.Context, f File, altText string, onProgress func(pct int)) (url string, err error)

// UploadQueueOpts configures an UploadQueue.
type UploadQueueOpts struct {
	// Upload is required.
	Upload UploadFunc
	// Transform defaults to NopTransform.
	Transform Transform
	// Timeout bounds each transmit attempt; defaults to
	// DEF_UPLOAD_TIMEOUT.
	Timeout time.Duration
	// AllowedTypes is the declared-MIME allow-list; defaults to common
	// web image types.
	AllowedTypes []string
	// NewID generates task ids; defaults to uuid.NewString.
	NewID    func() string
	Handlers *UploadHandlers
}

func defaultAllowedTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/svg+xml",
	}
}

// UploadQueue accepts batches of files and processes them one at a time,
// compress then transmit, in strict submission order. A single failure
// never halts the batch, and any failed task can be retried individually
// without resubmitting the rest.
type UploadQueue struct {
	l         *log.Logger
	upload    UploadFunc
	transform Transform
	timeout   time.Duration
	allowed   map[string]struct{}
	newID     func() string
	handlers  *UploadHandlers

	byID VMap[string, *UploadTask]

	mu      sync.Mutex
	tasks   []*UploadTask
	running bool
}

// NewUploadQueue creates an empty queue.
func NewUploadQueue(l *log.Logger, opts *UploadQueueOpts) *UploadQueue {
	if opts.Handlers == nil {
		opts.Handlers = &UploadHandlers{}
	}
	opts.Handlers.setDefault(l)
	if opts.Transform == nil {
		opts.Transform = NopTransform()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DEF_UPLOAD_TIMEOUT
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	types := opts.AllowedTypes
	if len(types) == 0 {
		types = defaultAllowedTypes()
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return &UploadQueue{
		l:         l,
		upload:    opts.Upload,
		transform: opts.Transform,
		timeout:   opts.Timeout,
		allowed:   allowed,
		newID:     opts.NewID,
		handlers:  opts.Handlers,
		byID:      NewVMap[string, *UploadTask](),
	}
}

// AddToQueue validates the declared type of every file and appends the
// valid ones as pending tasks in submission order. altTexts is matched to
// files by index; missing entries become empty strings. Processing does
// not start automatically; call ProcessQueue. The ids of the accepted
// tasks are returned in order.
func (q *UploadQueue) AddToQueue(files []File, altTexts []string) []string {
	var ids []string
	for i, f := range files {
		if _, ok := q.allowed[f.MIME]; !ok {
			q.handlers.RejectedHandler(f.Name, f.MIME)
			continue
		}
		alt := ""
		if i < len(altTexts) {
			alt = altTexts[i]
		}
		t := &UploadTask{
			ID:       q.newID(),
			File:     f,
			FileName: f.Name,
			AltText:  alt,
			Status:   UploadPending,
		}
		q.mu.Lock()
		q.tasks = append(q.tasks, t)
		q.mu.Unlock()
		q.byID.Set(t.ID, t)
		ids = append(ids, t.ID)
	}
	return ids
}

// ProcessQueue runs pending tasks strictly in order until none remain.
// It is a no-op if a processing loop is already active; only one loop
// runs at a time.
func (q *UploadQueue) ProcessQueue(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
		q.handlers.DrainedHandler(q.CompletedCount(), q.TotalCount())
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		t := q.nextPending()
		if t == nil {
			return
		}
		q.processTask(ctx, t)
	}
}

func (q *UploadQueue) nextPending() *UploadTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.Status == UploadPending && !t.retrying {
			return t
		}
	}
	return nil
}

// processTask drives one task through compress then transmit. The caller
// guarantees exclusive ownership of the task (main loop or retry guard).
func (q *UploadQueue) processTask(ctx context.Context, t *UploadTask) {
	q.setStatus(t, UploadCompressing)

	compressed, err := q.transform.Apply(ctx, t.File)
	if err != nil {
		q.fail(t, fmt.Errorf("compression failed: %w", err))
		return
	}

	q.mu.Lock()
	t.Progress = 0
	q.mu.Unlock()
	q.setStatus(t, UploadUploading)

	tctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	url, err := q.upload(tctx, compressed, t.AltText, func(pct int) {
		q.mu.Lock()
		t.Progress = pct
		q.mu.Unlock()
		q.handlers.ProgressHandler(t.ID, pct)
	})
	if err != nil {
		q.fail(t, err)
		return
	}

	q.mu.Lock()
	t.Progress = 100
	t.ResultURL = url
	t.Error = ""
	q.mu.Unlock()
	q.setStatus(t, UploadSuccess)
	q.handlers.CompleteHandler(t.ID, url, t.AltText)
}

func (q *UploadQueue) setStatus(t *UploadTask, status UploadStatus) {
	q.mu.Lock()
	t.Status = status
	q.mu.Unlock()
	q.handlers.StateHandler(t.ID, status)
}

func (q *UploadQueue) fail(t *UploadTask, err error) {
	q.mu.Lock()
	t.Error = err.Error()
	q.mu.Unlock()
	q.setStatus(t, UploadFailed)
	q.handlers.ErrorHandler(t.ID, err)
}

// RetryUpload re-runs the compress-then-transmit procedure for a single
// failed task, independent of the main processing loop. Retrying a task
// that is not failed, or that is already being retried, is an error.
func (q *UploadQueue) RetryUpload(ctx context.Context, taskID string) error {
	t, ok := q.byID.Get(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	q.mu.Lock()
	if t.Status != UploadFailed {
		q.mu.Unlock()
		return ErrTaskNotFailed
	}
	if t.retrying {
		q.mu.Unlock()
		return ErrTaskBusy
	}
	t.retrying = true
	t.Error = ""
	t.Progress = 0
	q.mu.Unlock()

	q.processTask(ctx, t)

	q.mu.Lock()
	t.retrying = false
	q.mu.Unlock()
	return nil
}

// RemoveFromQueue removes a task. Tasks currently compressing or
// uploading cannot be removed.
func (q *UploadQueue) RemoveFromQueue(taskID string) error {
	t, ok := q.byID.Get(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	q.mu.Lock()
	if t.Status == UploadCompressing || t.Status == UploadUploading {
		q.mu.Unlock()
		return ErrTaskActive
	}
	for i, x := range q.tasks {
		if x.ID == taskID {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}
	q.mu.Unlock()
	q.byID.Delete(taskID)
	return nil
}

// ClearCompleted removes every successful task and returns how many were
// removed.
func (q *UploadQueue) ClearCompleted() int {
	q.mu.Lock()
	kept := q.tasks[:0]
	var removed []string
	for _, t := range q.tasks {
		if t.Status == UploadSuccess {
			removed = append(removed, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	q.tasks = kept
	q.mu.Unlock()
	for _, id := range removed {
		q.byID.Delete(id)
	}
	return len(removed)
}

// Tasks returns a snapshot of every task in submission order.
func (q *UploadQueue) Tasks() []UploadTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]UploadTask, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = *t
	}
	return out
}

// IsUploading reports whether any task is currently compressing or
// uploading.
func (q *UploadQueue) IsUploading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.Status == UploadCompressing || t.Status == UploadUploading {
			return true
		}
	}
	return false
}

// CompletedCount returns the number of successful tasks.
func (q *UploadQueue) CompletedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int
	for _, t := range q.tasks {
		if t.Status == UploadSuccess {
			n++
		}
	}
	return n
}

// TotalCount returns the number of tasks in the queue.
func (q *UploadQueue) TotalCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// StatusString derives a human-readable queue summary. It is computed on
// demand rather than stored so it can never drift from the task states.
func (q *UploadQueue) StatusString() string {
	total := q.TotalCount()
	if total == 0 {
		return ""
	}
	completed := q.CompletedCount()
	if q.IsUploading() {
		return fmt.Sprintf("uploading %d of %d assets", completed+1, total)
	}
	return fmt.Sprintf("%d of %d assets uploaded", completed, total)
}
