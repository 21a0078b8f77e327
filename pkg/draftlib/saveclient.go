package draftlib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// saveRequest is the wire body of one save attempt.
type saveRequest struct {
	DocumentID      string `json:"document_id"`
	Content         string `json:"content"`
	ExpectedVersion string `json:"expected_version"`
}

// saveResponse is the wire body of the backend's reply. A failed save
// carries the taxonomy kind and an optional message.
type saveResponse struct {
	Success    bool   `json:"success"`
	NewVersion string `json:"new_version,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message,omitempty"`
}

// SaveEndpoint is the HTTP implementation of the save endpoint contract.
type SaveEndpoint struct {
	client  *http.Client
	url     string
	token   string
	timeout time.Duration
}

// NewSaveEndpoint creates a save client posting to url. A nil client uses
// http.DefaultClient; token, when non-empty, is sent as a bearer token.
func NewSaveEndpoint(client *http.Client, url, token string, timeout time.Duration) *SaveEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DEF_UPLOAD_TIMEOUT
	}
	return &SaveEndpoint{client: client, url: url, token: token, timeout: timeout}
}

// Save implements SaveFunc against the HTTP backend. Every failure comes
// back as a *SaveError so the scheduler classifies it without guessing.
func (e *SaveEndpoint) Save(ctx context.Context, documentID, content, expectedVersion string) (string, error) {
	body, err := json.Marshal(&saveRequest{
		DocumentID:      documentID,
		Content:         content,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return "", &SaveError{Kind: SaveErrInternal, Message: err.Error()}
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodPut, e.url, bytes.NewReader(body))
	if err != nil {
		return "", &SaveError{Kind: SaveErrInternal, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &SaveError{Kind: SaveErrNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	var sr saveResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&sr); decErr != nil {
		// No usable body; classify from the HTTP status alone.
		return "", &SaveError{
			Kind:    kindFromStatus(resp.StatusCode),
			Message: fmt.Sprintf("unreadable response (status %d)", resp.StatusCode),
		}
	}
	if sr.Success {
		return sr.NewVersion, nil
	}
	kind := SaveErrorKind(sr.Kind)
	switch kind {
	case SaveErrStale, SaveErrUnauthorized, SaveErrTooLarge, SaveErrNetwork, SaveErrInternal:
	default:
		kind = kindFromStatus(resp.StatusCode)
	}
	return "", &SaveError{Kind: kind, Message: sr.Message}
}

func kindFromStatus(status int) SaveErrorKind {
	switch {
	case status == http.StatusConflict:
		return SaveErrStale
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return SaveErrUnauthorized
	case status == http.StatusRequestEntityTooLarge:
		return SaveErrTooLarge
	case status >= 500:
		return SaveErrNetwork
	default:
		return SaveErrInternal
	}
}
