package draftlib

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// scriptedProbe answers probes from a url -> outcome table and counts
// calls per URL.
type scriptedProbe struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string]ProbeResult
	errs    map[string]error
}

func newScriptedProbe() *scriptedProbe {
	return &scriptedProbe{
		calls:   make(map[string]int),
		results: make(map[string]ProbeResult),
		errs:    make(map[string]error),
	}
}

func (p *scriptedProbe) probe(ctx context.Context, url string) (ProbeResult, error) {
	p.mu.Lock()
	p.calls[url]++
	res, err := p.results[url], p.errs[url]
	p.mu.Unlock()
	if err != nil {
		return ProbeResult{}, err
	}
	if res == (ProbeResult{}) {
		res = ProbeResult{StatusCode: 200}
	}
	return res, nil
}

func (p *scriptedProbe) callCount(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

func newTestScanner(t *testing.T, docs []Document, p ProbeFunc, h *ScanHandlers) *ResourceHealthScanner {
	t.Helper()
	return NewResourceHealthScanner(testLogger(), docs, &ScannerOpts{
		Probe:    p,
		Timeout:  200 * time.Millisecond,
		Handlers: h,
	})
}

// TestScanner_DedupAcrossDocuments reproduces the reference scenario:
// three documents, two sharing one broken URL, yield exactly one probe
// and one result entry listing both referencing documents.
func TestScanner_DedupAcrossDocuments(t *testing.T) {
	probe := newScriptedProbe()
	probe.results["https://a/x.jpg"] = ProbeResult{StatusCode: 404}

	docs := []Document{
		{ID: "1", Label: "Post one", ResourceURLs: []string{"https://a/x.jpg"}},
		{ID: "2", Label: "Post two", ResourceURLs: []string{"https://a/x.jpg"}},
		{ID: "3", Label: "Post three", ResourceURLs: []string{"https://b/y.jpg"}},
	}
	s := newTestScanner(t, docs, probe.probe, nil)

	results, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if probe.callCount("https://a/x.jpg") != 1 {
		t.Fatalf("shared URL probed %d times, want 1", probe.callCount("https://a/x.jpg"))
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result entry, got %d: %v", len(results), results)
	}
	r := results[0]
	if r.URL != "https://a/x.jpg" || r.Outcome != OutcomeBroken || r.StatusCode != 404 {
		t.Fatalf("unexpected result %+v", r)
	}
	if len(r.ReferencingIDs) != 2 || r.ReferencingIDs[0] != "1" || r.ReferencingIDs[1] != "2" {
		t.Fatalf("referencing ids %v, want [1 2]", r.ReferencingIDs)
	}
	if len(r.ReferencingLabels) != 2 || r.ReferencingLabels[0] != "Post one" {
		t.Fatalf("referencing labels %v", r.ReferencingLabels)
	}
}

// TestScanner_DedupWithinDocument: a document referencing the same URL in
// a field and in its markup counts once.
func TestScanner_DedupWithinDocument(t *testing.T) {
	probe := newScriptedProbe()
	probe.results["https://a/x.jpg"] = ProbeResult{StatusCode: 410}

	docs := []Document{{
		ID:           "1",
		Label:        "Post",
		ResourceURLs: []string{"https://a/x.jpg"},
		Markup:       `<p><img src="https://a/x.jpg"></p>`,
	}}
	s := newTestScanner(t, docs, probe.probe, nil)

	results, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if probe.callCount("https://a/x.jpg") != 1 {
		t.Fatalf("URL probed %d times, want 1", probe.callCount("https://a/x.jpg"))
	}
	if len(results) != 1 || len(results[0].ReferencingIDs) != 1 {
		t.Fatalf("unexpected results %v", results)
	}
}

// TestScanner_Classification walks the outcome taxonomy: healthy,
// opaque-healthy, broken, timeout, unverifiable.
func TestScanner_Classification(t *testing.T) {
	probe := newScriptedProbe()
	probe.results["https://ok/a"] = ProbeResult{StatusCode: 204}
	probe.results["https://opaque/b"] = ProbeResult{Opaque: true}
	probe.results["https://broken/c"] = ProbeResult{StatusCode: 404}
	probe.errs["https://slow/d"] = context.DeadlineExceeded
	probe.errs["https://cors/e"] = errors.New("connection refused")

	docs := []Document{{ID: "1", Label: "Post", ResourceURLs: []string{
		"https://ok/a", "https://opaque/b", "https://broken/c", "https://slow/d", "https://cors/e",
	}}}
	s := newTestScanner(t, docs, probe.probe, nil)

	results, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	byURL := make(map[string]ScanResult)
	for _, r := range results {
		byURL[r.URL] = r
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 unhealthy entries, got %v", results)
	}
	if _, ok := byURL["https://ok/a"]; ok {
		t.Fatal("healthy URL must be omitted from results")
	}
	if _, ok := byURL["https://opaque/b"]; ok {
		t.Fatal("opaque response must classify as healthy, not broken")
	}
	if r := byURL["https://broken/c"]; r.Outcome != OutcomeBroken || r.StatusCode != 404 {
		t.Fatalf("broken entry %+v", r)
	}
	if r := byURL["https://slow/d"]; r.Outcome != OutcomeTimeout {
		t.Fatalf("timeout entry %+v", r)
	}
	if r := byURL["https://cors/e"]; r.Outcome != OutcomeUnverifiable {
		t.Fatalf("unverifiable entry %+v", r)
	}
}

// TestScanner_NetTimeoutClassifiesAsTimeout: a net.Error with
// Timeout()==true classifies as timeout even without a context deadline
// error.
func TestScanner_NetTimeoutClassifiesAsTimeout(t *testing.T) {
	var netErr net.Error = &net.DNSError{IsTimeout: true, Err: "i/o timeout"}
	res, unhealthy := classifyProbe("https://x/y", ProbeResult{}, netErr)
	if !unhealthy || res.Outcome != OutcomeTimeout {
		t.Fatalf("got %+v (unhealthy=%v), want timeout", res, unhealthy)
	}
}

// TestScanner_Progress: checked/total advance after every probe,
// healthy or not, and Reset clears both.
func TestScanner_Progress(t *testing.T) {
	var mu sync.Mutex
	var ticks [][2]int

	probe := newScriptedProbe()
	probe.results["https://broken/c"] = ProbeResult{StatusCode: 500}
	docs := []Document{{ID: "1", Label: "P", ResourceURLs: []string{
		"https://ok/a", "https://ok/b", "https://broken/c",
	}}}
	s := newTestScanner(t, docs, probe.probe, &ScanHandlers{
		ProgressHandler: func(checked, total int) {
			mu.Lock()
			ticks = append(ticks, [2]int{checked, total})
			mu.Unlock()
		},
	})

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	checked, total := s.Progress()
	if checked != 3 || total != 3 {
		t.Fatalf("progress %d/%d, want 3/3", checked, total)
	}
	mu.Lock()
	if len(ticks) != 4 { // initial 0/3 plus one per probe
		mu.Unlock()
		t.Fatalf("progress ticks %v", ticks)
	}
	mu.Unlock()

	s.Reset()
	checked, total = s.Progress()
	if checked != 0 || total != 0 {
		t.Fatalf("progress after Reset %d/%d, want 0/0", checked, total)
	}
	if len(s.Results()) != 0 {
		t.Fatal("results not cleared by Reset")
	}
}

// TestScanner_SingleScanAtATime: a second Scan while one is active
// returns ErrScanInProgress.
func TestScanner_SingleScanAtATime(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := func(ctx context.Context, url string) (ProbeResult, error) {
		close(entered)
		<-release
		return ProbeResult{StatusCode: 200}, nil
	}
	docs := []Document{{ID: "1", Label: "P", ResourceURLs: []string{"https://ok/a"}}}
	s := newTestScanner(t, docs, blocking, nil)

	done := make(chan struct{})
	go func() {
		_, _ = s.Scan(context.Background())
		close(done)
	}()
	<-entered
	if !s.Scanning() {
		t.Fatal("Scanning() false during an active scan")
	}
	if _, err := s.Scan(context.Background()); err != ErrScanInProgress {
		t.Fatalf("concurrent Scan: got %v, want ErrScanInProgress", err)
	}
	close(release)
	<-done
}

// TestScanner_MarkupExtraction: URLs embedded in markup join the working
// set alongside explicit fields.
func TestScanner_MarkupExtraction(t *testing.T) {
	probe := newScriptedProbe()
	probe.results["https://cdn/hero.jpg"] = ProbeResult{StatusCode: 403}

	docs := []Document{{
		ID:     "1",
		Label:  "Landing",
		Markup: `<div><img src="https://cdn/hero.jpg" alt=""></div>`,
	}}
	s := newTestScanner(t, docs, probe.probe, nil)

	results, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://cdn/hero.jpg" {
		t.Fatalf("results %v", results)
	}
	if results[0].StatusCode != 403 {
		t.Fatalf("status %d, want 403", results[0].StatusCode)
	}
}

// TestScanner_PanickingProberDoesNotAbortScan: a prober that panics on
// one URL must not stop the scan or wedge the concurrency slots; the
// remaining URLs are still classified and the scan completes.
func TestScanner_PanickingProberDoesNotAbortScan(t *testing.T) {
	probe := func(ctx context.Context, url string) (ProbeResult, error) {
		if url == "https://cdn/boom" {
			panic("prober blew up")
		}
		if url == "https://cdn/missing" {
			return ProbeResult{StatusCode: 404}, nil
		}
		return ProbeResult{StatusCode: 200}, nil
	}
	docs := []Document{{
		ID:    "1",
		Label: "Post",
		ResourceURLs: []string{
			"https://cdn/boom",
			"https://cdn/missing",
			"https://cdn/a",
			"https://cdn/b",
		},
	}}
	s := NewResourceHealthScanner(testLogger(), docs, &ScannerOpts{
		Probe:       probe,
		Timeout:     200 * time.Millisecond,
		Concurrency: 2,
	})

	done := make(chan []ScanResult, 1)
	go func() {
		results, err := s.Scan(context.Background())
		if err != nil {
			t.Errorf("Scan: %v", err)
		}
		done <- results
	}()

	var results []ScanResult
	select {
	case results = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Scan did not finish after a prober panic")
	}
	if len(results) != 1 || results[0].URL != "https://cdn/missing" {
		t.Fatalf("results %v, want the 404 entry only", results)
	}
	if s.Scanning() {
		t.Fatal("Scanning() still true after the scan returned")
	}
}
