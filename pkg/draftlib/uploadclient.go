package draftlib

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
)

// uploadResponse is the JSON body returned by the upload endpoint.
type uploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// UploadEndpoint is the HTTP implementation of the multipart upload
// endpoint contract.
type UploadEndpoint struct {
	client *http.Client
	url    string
	token  string
}

// NewUploadEndpoint creates an upload client posting to url. A nil client
// uses http.DefaultClient.
func NewUploadEndpoint(client *http.Client, url, token string) *UploadEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return &UploadEndpoint{client: client, url: url, token: token}
}

// progressReader reports read progress over a known total as integer
// percentages, each value at most once.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastPct  int
	progress func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.progress(pct)
		}
	}
	return n, err
}

// Upload implements UploadFunc: it transmits the payload as a multipart
// form (file plus alt_text field) and returns the asset URL from the
// response body. Non-success HTTP outcomes become *UploadError with the
// server-supplied message when one is present.
func (e *UploadEndpoint) Upload(ctx context.Context, f File, altText string, onProgress func(pct int)) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return "", err
	}
	src, err := f.Open()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, src); err != nil {
		src.Close()
		return "", err
	}
	src.Close()
	if err := mw.WriteField("alt_text", altText); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	if onProgress == nil {
		onProgress = func(int) {}
	}
	pr := &progressReader{
		r:        &body,
		total:    int64(body.Len()),
		progress: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ur uploadResponse
	decErr := json.NewDecoder(resp.Body).Decode(&ur)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: ur.Message}
	}
	if decErr != nil {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "unreadable upload response"}
	}
	onProgress(100)
	return ur.URL, nil
}
