package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrSessionNotRunning reports that a typed operation was issued against a dead session.
	ErrSessionNotRunning = New("fsix session is not running")
	// ErrUserDeclinedInstall reports that the daemon is missing and the user chose not to install it.
	// Callers treat it as a no-op outcome rather than a failure.
	ErrUserDeclinedInstall = New("fsix daemon install declined")
	// ErrChannelClosed reports that the message channel was closed locally.
	ErrChannelClosed = New("message channel closed")
)

// IsSessionDead reports whether the error means the backing transport is gone and the session must be rebuilt.
func IsSessionDead(e error) bool {
	if e == nil {
		return false
	}
	if stderr.Is(e, ErrSessionNotRunning) || stderr.Is(e, ErrChannelClosed) {
		return true
	}

	var transportErr *TransportError
	var violationErr *ProtocolViolationError
	var exitedErr *ProcessExitedError
	return stderr.As(e, &transportErr) || stderr.As(e, &violationErr) || stderr.As(e, &exitedErr)
}

// IsDeclined reports whether the error is the user declining the daemon install.
func IsDeclined(e error) bool {
	return stderr.Is(e, ErrUserDeclinedInstall)
}
