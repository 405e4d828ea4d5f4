package errors

import (
	"fmt"
)

// InitFailureReason tags the way an initialization handshake failed.
type InitFailureReason string

const (
	// InitFailureRemoteException means the daemon reported a structured exception in its initialized notification.
	InitFailureRemoteException InitFailureReason = "remoteException"
	// InitFailureProcessExited means the daemon process exited before the handshake completed.
	InitFailureProcessExited InitFailureReason = "processExited"
	// InitFailureOther covers launch errors, transport errors and cancellation.
	InitFailureOther InitFailureReason = "other"
)

// InitFailure is the tagged result of a failed handshake.
type InitFailure struct {
	Reason    InitFailureReason
	Exception *RemoteError
	Code      int
	Err       error
}

// Error is an implementation of the error interface.
func (f *InitFailure) Error() string {
	switch f.Reason {
	case InitFailureRemoteException:
		if f.Exception == nil {
			return "fsix initialization failed with an empty exception"
		}
		return fmt.Sprintf("fsix initialization failed: %s", f.Exception.Error())
	case InitFailureProcessExited:
		return fmt.Sprintf("FsiX process exited with code %d", f.Code)
	default:
		if f.Err == nil {
			return "fsix initialization failed"
		}
		return fmt.Sprintf("fsix initialization failed: %s", f.Err.Error())
	}
}

// Unwrap exposes the remote exception or the underlying error.
func (f *InitFailure) Unwrap() error {
	if f.Exception != nil {
		return f.Exception
	}
	return f.Err
}

// TransportError reports an I/O failure on the daemon transport. The session that owned it is dead.
type TransportError struct {
	Op  string
	Err error
}

// Error is an implementation of the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fsix transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolViolationError reports a message the channel cannot make sense of, such as a response with an unknown id.
// It is fatal to the transport it arrived on.
type ProtocolViolationError struct {
	Reason string
	ID     string
}

// Error is an implementation of the error interface.
func (e *ProtocolViolationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("fsix protocol violation: %s", e.Reason)
	}
	return fmt.Sprintf("fsix protocol violation: %s (id %s)", e.Reason, e.ID)
}

// ProcessExitedError reports that the daemon process is gone.
type ProcessExitedError struct {
	Code int
}

// Error is an implementation of the error interface.
func (e *ProcessExitedError) Error() string {
	return fmt.Sprintf("FsiX process exited with code %d", e.Code)
}
