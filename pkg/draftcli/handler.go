package draftcli

import (
	"encoding/json"

	"github.com/draftsync/draftsync/common"
)

// Handler defines the interface for processing daemon updates.
// Implementations receive raw JSON messages and are responsible for
// unmarshaling and processing them appropriately.
type Handler interface {
	Handle(json.RawMessage) error
}

// SessionUpdateHandler processes session updates from the daemon. It
// filters updates by action and invokes a callback for matching ones.
type SessionUpdateHandler struct {
	Action   common.SessionAction
	Callback func(*common.SessionUpdate) error
}

// NewSessionUpdateHandler creates a handler for session updates. The
// action parameter filters updates to those matching the given session
// action; pass an empty string to receive all actions.
func NewSessionUpdateHandler(action common.SessionAction, callback func(*common.SessionUpdate) error) *SessionUpdateHandler {
	return &SessionUpdateHandler{
		Action:   action,
		Callback: callback,
	}
}

// Handle unmarshals the message, checks the action filter, and invokes
// the callback if applicable.
func (h *SessionUpdateHandler) Handle(m json.RawMessage) error {
	var v common.SessionUpdate
	err := json.Unmarshal(m, &v)
	if err != nil {
		return err
	}
	if h.Action != "" && v.Action != h.Action {
		return nil
	}
	return h.Callback(&v)
}
