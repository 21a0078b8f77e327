package draftlib

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func memFile(t *testing.T, name, mimeType, content string) File {
	t.Helper()
	f, err := NewMemFile(name, mimeType, []byte(content))
	if err != nil {
		t.Fatalf("NewMemFile(%s): %v", name, err)
	}
	return f
}

// scriptedUploader is an UploadFunc that succeeds unless the file name is
// listed in failNames, and records transmit order.
type scriptedUploader struct {
	mu        sync.Mutex
	order     []string
	failNames map[string]error
}

func (u *scriptedUploader) upload(ctx context.Context, f File, altText string, onProgress func(int)) (string, error) {
	u.mu.Lock()
	u.order = append(u.order, f.Name)
	u.mu.Unlock()
	if err, ok := u.failNames[f.Name]; ok {
		return "", err
	}
	onProgress(50)
	onProgress(100)
	return "https://assets.example/" + f.Name, nil
}

func newTestQueue(t *testing.T, u UploadFunc, h *UploadHandlers) *UploadQueue {
	t.Helper()
	return NewUploadQueue(testLogger(), &UploadQueueOpts{
		Upload:   u,
		Handlers: h,
	})
}

// TestUploadQueue_OrderedCompletion: files [A, B, C] added in one call
// complete strictly in submission order, never interleaved.
func TestUploadQueue_OrderedCompletion(t *testing.T) {
	var mu sync.Mutex
	var completed []string

	up := &scriptedUploader{}
	q := newTestQueue(t, up.upload, &UploadHandlers{
		CompleteHandler: func(taskID, url, altText string) {
			mu.Lock()
			completed = append(completed, altText)
			mu.Unlock()
		},
	})

	files := []File{
		memFile(t, "a.png", "image/png", "aaa"),
		memFile(t, "b.png", "image/png", "bbb"),
		memFile(t, "c.png", "image/png", "ccc"),
	}
	ids := q.AddToQueue(files, []string{"A", "B", "C"})
	if len(ids) != 3 {
		t.Fatalf("expected 3 accepted tasks, got %d", len(ids))
	}
	if q.IsUploading() {
		t.Fatal("queue must not start processing on AddToQueue")
	}

	q.ProcessQueue(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []string{"A", "B", "C"}
	if len(completed) != 3 {
		t.Fatalf("expected 3 completions, got %v", completed)
	}
	for i := range want {
		if completed[i] != want[i] {
			t.Fatalf("completion order %v, want %v", completed, want)
		}
	}
}

// TestUploadQueue_PartialFailure: a compression failure on B marks only B
// failed, with the prefixed message; A and C still succeed.
func TestUploadQueue_PartialFailure(t *testing.T) {
	up := &scriptedUploader{}
	boom := errors.New("corrupt header")
	transform := TransformFunc(func(ctx context.Context, f File) (File, error) {
		if f.Name == "b.png" {
			return File{}, boom
		}
		return f, nil
	})
	q := NewUploadQueue(testLogger(), &UploadQueueOpts{
		Upload:    up.upload,
		Transform: transform,
	})

	q.AddToQueue([]File{
		memFile(t, "a.png", "image/png", "aaa"),
		memFile(t, "b.png", "image/png", "bbb"),
		memFile(t, "c.png", "image/png", "ccc"),
	}, nil)
	q.ProcessQueue(context.Background())

	tasks := q.Tasks()
	if tasks[0].Status != UploadSuccess || tasks[2].Status != UploadSuccess {
		t.Fatalf("a=%s c=%s, want both success", tasks[0].Status, tasks[2].Status)
	}
	if tasks[1].Status != UploadFailed {
		t.Fatalf("b status %s, want failed", tasks[1].Status)
	}
	if !strings.HasPrefix(tasks[1].Error, "compression failed: ") {
		t.Fatalf("b error %q lacks compression prefix", tasks[1].Error)
	}
	if q.CompletedCount() != 2 || q.TotalCount() != 3 {
		t.Fatalf("counts %d/%d, want 2/3", q.CompletedCount(), q.TotalCount())
	}
}

// TestUploadQueue_Retry: a failed task becomes successful via RetryUpload
// without touching the other tasks.
func TestUploadQueue_Retry(t *testing.T) {
	up := &scriptedUploader{failNames: map[string]error{
		"b.png": &UploadError{StatusCode: 502, Message: "upstream unavailable"},
	}}
	q := newTestQueue(t, up.upload, nil)

	ids := q.AddToQueue([]File{
		memFile(t, "a.png", "image/png", "aaa"),
		memFile(t, "b.png", "image/png", "bbb"),
	}, nil)
	q.ProcessQueue(context.Background())

	tasks := q.Tasks()
	if tasks[1].Status != UploadFailed {
		t.Fatalf("b status %s, want failed", tasks[1].Status)
	}
	if tasks[1].Error != "upstream unavailable" {
		t.Fatalf("b error %q, want the server-supplied message", tasks[1].Error)
	}

	// Retrying a successful task is an error.
	if err := q.RetryUpload(context.Background(), ids[0]); err != ErrTaskNotFailed {
		t.Fatalf("retry of successful task: got %v, want ErrTaskNotFailed", err)
	}

	// The endpoint recovered; retry only b.
	up.mu.Lock()
	delete(up.failNames, "b.png")
	up.mu.Unlock()
	if err := q.RetryUpload(context.Background(), ids[1]); err != nil {
		t.Fatalf("RetryUpload: %v", err)
	}

	tasks = q.Tasks()
	if tasks[1].Status != UploadSuccess {
		t.Fatalf("b status %s after retry, want success", tasks[1].Status)
	}
	if tasks[0].Status != UploadSuccess || tasks[0].ResultURL == "" {
		t.Fatal("retry of b must not disturb a")
	}
	if err := q.RetryUpload(context.Background(), "nope"); err != ErrTaskNotFound {
		t.Fatalf("retry of unknown id: got %v, want ErrTaskNotFound", err)
	}
}

// TestUploadQueue_TypeValidation: files with a disallowed declared type
// are dropped at enqueue time and reported through the rejection handler.
func TestUploadQueue_TypeValidation(t *testing.T) {
	var mu sync.Mutex
	var rejected []string

	up := &scriptedUploader{}
	q := newTestQueue(t, up.upload, &UploadHandlers{
		RejectedHandler: func(name, mimeType string) {
			mu.Lock()
			rejected = append(rejected, name+":"+mimeType)
			mu.Unlock()
		},
	})

	ids := q.AddToQueue([]File{
		memFile(t, "ok.png", "image/png", "x"),
		memFile(t, "evil.exe", "application/octet-stream", "x"),
	}, nil)

	if len(ids) != 1 || q.TotalCount() != 1 {
		t.Fatalf("expected 1 accepted task, got %d", q.TotalCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(rejected) != 1 || rejected[0] != "evil.exe:application/octet-stream" {
		t.Fatalf("rejections %v", rejected)
	}
}

// TestUploadQueue_ReentrantProcess: a second ProcessQueue while one loop
// is active is a no-op, so each task is transmitted exactly once.
func TestUploadQueue_ReentrantProcess(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var uploads int

	slow := func(ctx context.Context, f File, altText string, onProgress func(int)) (string, error) {
		mu.Lock()
		uploads++
		first := uploads == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return "https://assets.example/" + f.Name, nil
	}
	q := newTestQueue(t, slow, nil)
	q.AddToQueue([]File{
		memFile(t, "a.png", "image/png", "a"),
		memFile(t, "b.png", "image/png", "b"),
	}, nil)

	done := make(chan struct{})
	go func() {
		q.ProcessQueue(context.Background())
		close(done)
	}()
	<-entered

	// Re-entrant call returns immediately without processing anything.
	q.ProcessQueue(context.Background())
	mu.Lock()
	if uploads != 1 {
		mu.Unlock()
		t.Fatalf("re-entrant ProcessQueue started extra uploads: %d", uploads)
	}
	mu.Unlock()

	close(release)
	<-done
	mu.Lock()
	defer mu.Unlock()
	if uploads != 2 {
		t.Fatalf("expected 2 uploads total, got %d", uploads)
	}
}

// TestUploadQueue_RemoveAndClear covers the pure state mutations.
func TestUploadQueue_RemoveAndClear(t *testing.T) {
	up := &scriptedUploader{failNames: map[string]error{
		"b.png": &UploadError{StatusCode: 500},
	}}
	q := newTestQueue(t, up.upload, nil)
	ids := q.AddToQueue([]File{
		memFile(t, "a.png", "image/png", "a"),
		memFile(t, "b.png", "image/png", "b"),
		memFile(t, "c.png", "image/png", "c"),
	}, nil)
	q.ProcessQueue(context.Background())

	if n := q.ClearCompleted(); n != 2 {
		t.Fatalf("ClearCompleted removed %d, want 2", n)
	}
	if q.TotalCount() != 1 {
		t.Fatalf("total %d after clear, want 1", q.TotalCount())
	}
	if err := q.RemoveFromQueue(ids[1]); err != nil {
		t.Fatalf("RemoveFromQueue: %v", err)
	}
	if q.TotalCount() != 0 {
		t.Fatalf("total %d after remove, want 0", q.TotalCount())
	}
	if err := q.RemoveFromQueue(ids[1]); err != ErrTaskNotFound {
		t.Fatalf("double remove: got %v, want ErrTaskNotFound", err)
	}
}

// TestUploadQueue_StatusString checks the derived queue summary.
func TestUploadQueue_StatusString(t *testing.T) {
	up := &scriptedUploader{}
	q := newTestQueue(t, up.upload, nil)
	if s := q.StatusString(); s != "" {
		t.Fatalf("empty queue status %q, want empty", s)
	}
	q.AddToQueue([]File{
		memFile(t, "a.png", "image/png", "a"),
		memFile(t, "b.png", "image/png", "b"),
	}, nil)
	q.ProcessQueue(context.Background())
	if s := q.StatusString(); s != "2 of 2 assets uploaded" {
		t.Fatalf("status %q", s)
	}
}

// TestUploadQueue_ProgressMonotonic: progress callbacks reach the task
// snapshot and end at 100 on success.
func TestUploadQueue_ProgressMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	up := &scriptedUploader{}
	q := newTestQueue(t, up.upload, &UploadHandlers{
		ProgressHandler: func(taskID string, pct int) {
			mu.Lock()
			seen = append(seen, pct)
			mu.Unlock()
		},
	})
	q.AddToQueue([]File{memFile(t, "a.png", "image/png", "a")}, nil)
	q.ProcessQueue(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no progress reported")
	}
	last := -1
	for _, pct := range seen {
		if pct < last {
			t.Fatalf("progress went backwards: %v", seen)
		}
		last = pct
	}
	if last != 100 {
		t.Fatalf("final progress %d, want 100", last)
	}
	tasks := q.Tasks()
	if tasks[0].Progress != 100 {
		t.Fatalf("task progress %d, want 100", tasks[0].Progress)
	}
}

// TestUploadQueue_GenericFailureMessage: an HTTP failure without a server
// message falls back to the generic one.
func TestUploadQueue_GenericFailureMessage(t *testing.T) {
	up := &scriptedUploader{failNames: map[string]error{
		"a.png": &UploadError{StatusCode: 503},
	}}
	q := newTestQueue(t, up.upload, nil)
	q.AddToQueue([]File{memFile(t, "a.png", "image/png", "a")}, nil)
	q.ProcessQueue(context.Background())

	tasks := q.Tasks()
	want := fmt.Sprintf("upload failed with status %d", 503)
	if tasks[0].Error != want {
		t.Fatalf("error %q, want %q", tasks[0].Error, want)
	}
}
