package errors

import (
	"fmt"
	"strings"
)

// RemoteError is the host-side form of an exception raised inside the daemon.
// The daemon's inner exception chain is kept as a chain of causes.
type RemoteError struct {
	Name    string       `json:"name"`
	Message string       `json:"message"`
	Stack   string       `json:"stack,omitempty"`
	Cause   *RemoteError `json:"cause,omitempty"`
}

// Error is an implementation of the error interface.
func (e *RemoteError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap returns the inner exception, if any.
func (e *RemoteError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Depth returns the number of exceptions in the chain, including this one.
func (e *RemoteError) Depth() int {
	n := 0
	for cur := e; cur != nil; cur = cur.Cause {
		n++
	}
	return n
}

// Describe renders the exception and its causes the way they are printed inline under an evaluation.
func (e *RemoteError) Describe() string {
	var sb strings.Builder
	for cur, i := e, 0; cur != nil; cur, i = cur.Cause, i+1 {
		if i > 0 {
			sb.WriteString("\n ---> ")
		}
		sb.WriteString(cur.Error())
	}
	if e.Stack != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Stack)
	}
	return sb.String()
}
