package server

// ErrorType represents the severity of a session error.
type ErrorType int

const (
	// ErrorTypeCritical indicates a fatal error that halts the session,
	// such as a version conflict or an authorization failure.
	ErrorTypeCritical ErrorType = iota
	// ErrorTypeWarning indicates a transient error; the session keeps
	// retrying on its own.
	ErrorTypeWarning
)

// Error is the sticky error slot kept per session so that a client
// attaching after a failure still learns about it.
type Error struct {
	Type    ErrorType `json:"error_type"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
