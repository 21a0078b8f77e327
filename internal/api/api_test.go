package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftsync/draftsync/common"
	"github.com/draftsync/draftsync/internal/server"
	"github.com/draftsync/draftsync/pkg/draftlib"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestApi builds an Api against the given backend URLs with an
// isolated config dir.
func newTestApi(t *testing.T, saveURL, uploadURL string) (*Api, *server.Pool) {
	t.Helper()
	if err := draftlib.SetConfigDir(t.TempDir()); err != nil {
		t.Fatalf("SetConfigDir: %v", err)
	}
	a, err := NewApi(testLogger(), &Config{
		SaveURL:   saveURL,
		UploadURL: uploadURL,
		Token:     "test-token",
		Version:   "test",
	}, http.DefaultClient)
	if err != nil {
		t.Fatalf("NewApi: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	serv := server.NewServer(testLogger(), 42800)
	a.RegisterHandlers(serv)
	return a, serv.Pool()
}

// saveBackend returns an httptest server that accepts every save and
// hands back an incremented version.
func saveBackend(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var saves atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExpectedVersion string `json:"expected_version"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		n, _ := strconv.Atoi(req.ExpectedVersion)
		saves.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"success":true,"new_version":"%d"}`, n+1)
	}))
	t.Cleanup(srv.Close)
	return srv, &saves
}

func openSession(t *testing.T, a *Api, docID string) *common.EditOpenResponse {
	t.Helper()
	body, _ := json.Marshal(&common.EditOpenParams{DocumentId: docID, Version: "1"})
	_, resp, err := a.editOpenHandler(nil, a.pool, body)
	if err != nil {
		t.Fatalf("editOpen: %v", err)
	}
	return resp.(*common.EditOpenResponse)
}

func TestEditLifecycle(t *testing.T) {
	backend, saves := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)

	open := openSession(t, a, "doc-1")
	if open.SessionId == "" {
		t.Fatal("expected session id")
	}
	if open.HasRecovered {
		t.Fatal("unexpected recovered draft")
	}

	mark, _ := json.Marshal(&common.EditMarkParams{SessionId: open.SessionId, Content: "hello"})
	if _, _, err := a.editMarkHandler(nil, nil, mark); err != nil {
		t.Fatalf("editMark: %v", err)
	}

	in, _ := json.Marshal(&common.InputSessionId{SessionId: open.SessionId})
	_, resp, err := a.editSaveHandler(nil, nil, in)
	if err != nil {
		t.Fatalf("editSave: %v", err)
	}
	save := resp.(*common.EditSaveResponse)
	if save.Status != string(draftlib.SaveSaved) {
		t.Fatalf("expected saved, got %q", save.Status)
	}
	if save.Version != "2" {
		t.Fatalf("expected version 2, got %q", save.Version)
	}
	if saves.Load() != 1 {
		t.Fatalf("expected 1 save request, got %d", saves.Load())
	}

	_, resp, err = a.editStatusHandler(nil, nil, in)
	if err != nil {
		t.Fatalf("editStatus: %v", err)
	}
	status := resp.(*common.EditStatusResponse)
	if status.Dirty {
		t.Fatal("expected clean session after save")
	}

	if _, _, err := a.editCloseHandler(nil, a.pool, in); err != nil {
		t.Fatalf("editClose: %v", err)
	}
	if _, _, err := a.editStatusHandler(nil, nil, in); err == nil {
		t.Fatal("expected error for closed session")
	}
}

func TestEditOpenRecoversDraft(t *testing.T) {
	backend, _ := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)

	if err := a.store.WriteDraft(context.Background(), "doc-9", "unsaved work"); err != nil {
		t.Fatalf("WriteDraft: %v", err)
	}

	open := openSession(t, a, "doc-9")
	if !open.HasRecovered {
		t.Fatal("expected recovered draft")
	}
	if open.Recovered != "unsaved work" {
		t.Fatalf("got %q", open.Recovered)
	}
}

func TestCloseAfterSaveDiscardsDraft(t *testing.T) {
	backend, _ := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)

	open := openSession(t, a, "doc-2")
	mark, _ := json.Marshal(&common.EditMarkParams{SessionId: open.SessionId, Content: "x"})
	_, _, _ = a.editMarkHandler(nil, nil, mark)
	in, _ := json.Marshal(&common.InputSessionId{SessionId: open.SessionId})
	if _, _, err := a.editSaveHandler(nil, nil, in); err != nil {
		t.Fatalf("editSave: %v", err)
	}
	if _, _, err := a.editCloseHandler(nil, a.pool, in); err != nil {
		t.Fatalf("editClose: %v", err)
	}

	reopen := openSession(t, a, "doc-2")
	if reopen.HasRecovered {
		t.Fatal("draft should have been discarded after a clean close")
	}
}

func TestUploadFlow(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url":"https://cdn.example/a.png"}`)
	}))
	defer backend.Close()
	a, _ := newTestApi(t, backend.URL, backend.URL)

	open := openSession(t, a, "doc-3")

	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	up, _ := json.Marshal(&common.UploadParams{
		SessionId: open.SessionId,
		Files:     []common.UploadFileParam{{Path: path, AltText: "diagram"}},
	})
	_, resp, err := a.uploadHandler(nil, nil, up)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	ur := resp.(*common.UploadResponse)
	if len(ur.Accepted) != 1 {
		t.Fatalf("expected 1 accepted task, got %+v", ur)
	}

	in, _ := json.Marshal(&common.InputSessionId{SessionId: open.SessionId})
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, resp, err := a.uploadListHandler(nil, nil, in)
		if err != nil {
			t.Fatalf("uploadList: %v", err)
		}
		items := resp.(*common.UploadListResponse).Items
		if len(items) == 1 && items[0].Status == draftlib.UploadSuccess {
			if items[0].ResultURL != "https://cdn.example/a.png" {
				t.Fatalf("unexpected result url %q", items[0].ResultURL)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("upload never completed: %+v", items)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUploadRejectsUnknownSession(t *testing.T) {
	backend, _ := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)

	up, _ := json.Marshal(&common.UploadParams{SessionId: "nope", Files: []common.UploadFileParam{{Path: "x"}}})
	if _, _, err := a.uploadHandler(nil, nil, up); err == nil {
		t.Fatal("expected error")
	}
}

// readUpdates pumps broadcast frames from conn into a channel of
// decoded session updates.
func readUpdates(t *testing.T, conn net.Conn) <-chan common.SessionUpdate {
	t.Helper()
	ch := make(chan common.SessionUpdate, 64)
	go func() {
		defer close(ch)
		sconn := server.NewSyncConn(conn)
		for {
			buf, err := sconn.Read()
			if err != nil {
				return
			}
			var resp server.Response
			if err := json.Unmarshal(buf, &resp); err != nil || resp.Update == nil {
				continue
			}
			b, _ := json.Marshal(resp.Update.Message)
			var u common.SessionUpdate
			if err := json.Unmarshal(b, &u); err != nil {
				continue
			}
			ch <- u
		}
	}()
	return ch
}

func TestScanBroadcasts(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	saveSrv, _ := saveBackend(t)
	a, pool := newTestApi(t, saveSrv.URL, saveSrv.URL)

	open := openSession(t, a, "doc-4")

	local, remote := net.Pipe()
	defer local.Close()
	pool.AddConn(open.SessionId, remote)
	updates := readUpdates(t, local)

	scan, _ := json.Marshal(&common.ScanParams{
		SessionId: open.SessionId,
		Documents: []draftlib.Document{
			{ID: "1", Label: "Post 1", ResourceURLs: []string{backend.URL + "/ok.png", backend.URL + "/missing.png"}},
			{ID: "2", Label: "Post 2", ResourceURLs: []string{backend.URL + "/missing.png"}},
		},
	})
	_, resp, err := a.scanHandler(nil, nil, scan)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := resp.(*common.ScanResponse).Total; got != 2 {
		t.Fatalf("expected 2 unique urls, got %d", got)
	}

	var sawResult, sawComplete bool
	deadline := time.After(5 * time.Second)
	for !sawComplete {
		select {
		case u := <-updates:
			switch u.Action {
			case common.ScanResult:
				if u.Result == nil || u.Result.Outcome != draftlib.OutcomeBroken {
					t.Fatalf("unexpected result: %+v", u.Result)
				}
				if len(u.Result.ReferencingIDs) != 2 {
					t.Fatalf("expected both documents referenced, got %v", u.Result.ReferencingIDs)
				}
				sawResult = true
			case common.ScanComplete:
				sawComplete = true
			}
		case <-deadline:
			t.Fatal("scan updates never completed")
		}
	}
	if !sawResult {
		t.Fatal("missing scan_result update")
	}
}

func TestScanCron(t *testing.T) {
	backend, _ := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)
	open := openSession(t, a, "doc-5")

	cron, _ := json.Marshal(&common.ScanCronParams{SessionId: open.SessionId, Cron: "*/5 * * * *"})
	if _, _, err := a.scanCronHandler(nil, nil, cron); err == nil {
		t.Fatal("expected error before StartScheduler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.StartScheduler(ctx)

	_, resp, err := a.scanCronHandler(nil, nil, cron)
	if err != nil {
		t.Fatalf("scanCron: %v", err)
	}
	next := resp.(*common.ScanCronResponse).NextRun
	if !next.After(time.Now()) {
		t.Fatalf("next run %v not in the future", next)
	}

	bad, _ := json.Marshal(&common.ScanCronParams{SessionId: open.SessionId, Cron: "not a cron"})
	if _, _, err := a.scanCronHandler(nil, nil, bad); err == nil {
		t.Fatal("expected invalid cron error")
	}
}

func TestVersionHandler(t *testing.T) {
	backend, _ := saveBackend(t)
	a, _ := newTestApi(t, backend.URL, backend.URL)

	_, resp, err := a.versionHandler(nil, nil, nil)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if resp.(*common.VersionResponse).Version != "test" {
		t.Fatalf("unexpected version: %+v", resp)
	}
}
