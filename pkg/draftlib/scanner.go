package draftlib

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Probe outcome markers for non-healthy URLs. Broken URLs additionally
// carry the numeric HTTP status.
const (
	OutcomeBroken       = "broken"
	OutcomeTimeout      = "timeout"
	OutcomeUnverifiable = "unverifiable"
)

// Document is one member of the scanned collection: an id, a display
// label, explicit resource URL fields, and embedded markup from which
// further URLs are extracted.
type Document struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	ResourceURLs []string `json:"resource_urls,omitempty"`
	Markup       string   `json:"markup,omitempty"`
}

// ScanResult records one unhealthy URL and every document referencing it.
// ReferencingIDs and ReferencingLabels are parallel, insertion-ordered,
// and deduplicated per URL.
type ScanResult struct {
	URL               string   `json:"url"`
	Outcome           string   `json:"outcome"`
	StatusCode        int      `json:"status,omitempty"`
	ReferencingIDs    []string `json:"referencing_ids"`
	ReferencingLabels []string `json:"referencing_labels"`
}

// ProbeResult is the raw outcome of one existence probe. Opaque marks a
// response that reached the network but whose status cannot be
// inspected; the scanner treats it as healthy, never as broken.
type ProbeResult struct {
	StatusCode int
	Opaque     bool
}

// ProbeFunc issues a lightweight existence probe for one URL. The context
// carries the per-probe deadline.
type ProbeFunc func(ctx context.Context, url string) (ProbeResult, error)

// NewHeadProbe returns the default ProbeFunc: an HTTP HEAD request
// through the given client. A nil client uses http.DefaultClient.
func NewHeadProbe(client *http.Client) ProbeFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (ProbeResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return ProbeResult{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return ProbeResult{}, err
		}
		resp.Body.Close()
		return ProbeResult{StatusCode: resp.StatusCode}, nil
	}
}

// ExtractFunc extracts resource URLs from embedded markup.
type ExtractFunc func(markup string) []string

// ScannerOpts configures a ResourceHealthScanner.
type ScannerOpts struct {
	// Probe defaults to NewHeadProbe(nil).
	Probe ProbeFunc
	// Extract defaults to ExtractURLs.
	Extract ExtractFunc
	// Timeout bounds each probe; defaults to DEF_PROBE_TIMEOUT.
	Timeout time.Duration
	// Concurrency bounds parallel probes; the default of 1 preserves the
	// strictly sequential reference behavior.
	Concurrency int64
	Handlers    *ScanHandlers
}

type urlRef struct {
	ids    []string
	labels []string
	seen   map[string]struct{}
}

// ResourceHealthScanner probes every distinct resource URL referenced by
// a document collection and classifies unreachable ones. URLs are
// deduplicated globally across the collection before any network call,
// so no URL is probed twice in one scan.
type ResourceHealthScanner struct {
	l           *log.Logger
	probe       ProbeFunc
	extract     ExtractFunc
	timeout     time.Duration
	concurrency int64
	handlers    *ScanHandlers

	mu       sync.Mutex
	docs     []Document
	scanning bool
	checked  int
	total    int
	results  []ScanResult

	// cbMu serializes result/progress callback delivery so parallel
	// probes cannot report progress out of order.
	cbMu sync.Mutex
}

// NewResourceHealthScanner creates a scanner over the given collection.
func NewResourceHealthScanner(l *log.Logger, docs []Document, opts *ScannerOpts) *ResourceHealthScanner {
	if opts == nil {
		opts = &ScannerOpts{}
	}
	if opts.Handlers == nil {
		opts.Handlers = &ScanHandlers{}
	}
	opts.Handlers.setDefault(l)
	if opts.Probe == nil {
		opts.Probe = NewHeadProbe(nil)
	}
	if opts.Extract == nil {
		opts.Extract = ExtractURLs
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DEF_PROBE_TIMEOUT
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &ResourceHealthScanner{
		l:           l,
		probe:       opts.Probe,
		extract:     opts.Extract,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		handlers:    opts.Handlers,
		docs:        docs,
	}
}

// SetDocuments replaces the scanned collection. It does not clear prior
// results; call Reset for that.
func (s *ResourceHealthScanner) SetDocuments(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
}

// UniqueURLs returns the number of distinct resource URLs the current
// document collection references, without probing anything.
func (s *ResourceHealthScanner) UniqueURLs() int {
	urls, _ := s.collect()
	return len(urls)
}

// collect builds the deduplicated url -> referencing documents table.
// Both the URL set and each URL's document set are deduplicated: a URL
// referenced twice by one document counts that document once.
func (s *ResourceHealthScanner) collect() (urls []string, refs map[string]*urlRef) {
	refs = make(map[string]*urlRef)
	add := func(url string, d Document) {
		if url == "" {
			return
		}
		r, ok := refs[url]
		if !ok {
			r = &urlRef{seen: make(map[string]struct{})}
			refs[url] = r
			urls = append(urls, url)
		}
		if _, dup := r.seen[d.ID]; dup {
			return
		}
		r.seen[d.ID] = struct{}{}
		r.ids = append(r.ids, d.ID)
		r.labels = append(r.labels, d.Label)
	}

	s.mu.Lock()
	docs := s.docs
	s.mu.Unlock()

	for _, d := range docs {
		for _, u := range d.ResourceURLs {
			add(u, d)
		}
		if d.Markup != "" {
			for _, u := range s.extract(d.Markup) {
				add(u, d)
			}
		}
	}
	return urls, refs
}

// Scan probes every unique URL once and returns the unhealthy entries.
// Only one scan runs at a time. Probes run under the configured
// concurrency bound; checked/total bookkeeping stays race-free either
// way.
func (s *ResourceHealthScanner) Scan(ctx context.Context) ([]ScanResult, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.scanning = true
	s.results = nil
	s.checked = 0
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	urls, refs := s.collect()

	s.mu.Lock()
	s.total = len(urls)
	s.mu.Unlock()
	s.handlers.ProgressHandler(0, len(urls))

	sem := semaphore.NewWeighted(s.concurrency)
	var wg sync.WaitGroup
	for _, url := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return s.Results(), err
		}
		wg.Add(1)
		url := url
		safeGo(s.l, &wg, "probe "+url, nil, func() {
			// Release runs during panic unwinding too, so safeGo's
			// recovery must not release again.
			defer sem.Release(1)
			s.probeOne(ctx, url, refs[url])
		})
	}
	wg.Wait()

	results := s.Results()
	s.handlers.CompleteHandler(results)
	return results, nil
}

func (s *ResourceHealthScanner) probeOne(ctx context.Context, url string, ref *urlRef) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	pr, err := s.probe(pctx, url)
	cancel()

	res, unhealthy := classifyProbe(url, pr, err)
	if unhealthy {
		res.ReferencingIDs = ref.ids
		res.ReferencingLabels = ref.labels
	}

	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	s.mu.Lock()
	s.checked++
	checked, total := s.checked, s.total
	if unhealthy {
		s.results = append(s.results, res)
	}
	s.mu.Unlock()

	if unhealthy {
		s.handlers.ResultHandler(res)
	}
	// Progress advances after every probe, healthy or not.
	s.handlers.ProgressHandler(checked, total)
}

// classifyProbe maps a raw probe outcome onto the reporting taxonomy.
// Healthy URLs (readable non-error status, or an opaque success) produce
// no result entry.
func classifyProbe(url string, pr ProbeResult, err error) (ScanResult, bool) {
	if err == nil {
		if pr.Opaque || pr.StatusCode < 400 {
			return ScanResult{}, false
		}
		return ScanResult{URL: url, Outcome: OutcomeBroken, StatusCode: pr.StatusCode}, true
	}
	if errors.Is(err, context.Canceled) {
		// The scan itself was torn down; an aborted probe says nothing
		// about the URL.
		return ScanResult{}, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ScanResult{URL: url, Outcome: OutcomeTimeout}, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ScanResult{URL: url, Outcome: OutcomeTimeout}, true
	}
	// Anything else (DNS failure, refused connection, TLS errors) may be
	// a false positive, so it is reported as unverifiable and never
	// conflated with confirmed breakage.
	return ScanResult{URL: url, Outcome: OutcomeUnverifiable}, true
}

// Progress returns how many probes have completed out of the total for
// the current (or last) scan.
func (s *ResourceHealthScanner) Progress() (checked, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked, s.total
}

// Results returns a snapshot of the unhealthy entries recorded so far.
func (s *ResourceHealthScanner) Results() []ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScanResult, len(s.results))
	copy(out, s.results)
	return out
}

// Scanning reports whether a scan pass is active.
func (s *ResourceHealthScanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Reset clears prior results and progress without re-scanning.
func (s *ResourceHealthScanner) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.checked = 0
	s.total = 0
}
