package errors

import (
	stderr "errors"
	"fmt"

	"github.com/gofrs/uuid"
)

// ClientNotFoundError is a service domain error for an editor client that is not registered.
type ClientNotFoundError struct {
	UUID uuid.UUID
}

// Error is an implementation of the error interface.
func (n *ClientNotFoundError) Error() string {
	return fmt.Sprintf("client %q not found", n.UUID)
}

// NotFoundUUID returns an UUID and true if ClientNotFoundError is part of the
// error chain.
func NotFoundUUID(e error) (_ uuid.UUID, ok bool) {
	var nf *ClientNotFoundError
	if !stderr.As(e, &nf) {
		return uuid.Nil, false
	}
	return nf.UUID, true
}

// NoClientFoundError indicates that a client cannot be found within the context.
type NoClientFoundError struct{}

// Error is an implementation of the error interface.
func (n *NoClientFoundError) Error() string {
	return "no client found in context"
}

// IdentityNotFoundError indicates that no session is registered for a logical identity.
type IdentityNotFoundError struct {
	Identity string
}

// Error is an implementation of the error interface.
func (n *IdentityNotFoundError) Error() string {
	return fmt.Sprintf("no fsix session for %q", n.Identity)
}

// IdentityResolutionError indicates that a document URI looks like a REPL document but carries no instance number.
type IdentityResolutionError struct {
	URI    string
	Reason string
}

// Error is an implementation of the error interface.
func (n *IdentityResolutionError) Error() string {
	return fmt.Sprintf("resolving session identity for %q: %s", n.URI, n.Reason)
}

// IsIdentityError reports whether the error is an identity lookup or resolution failure.
func IsIdentityError(e error) bool {
	var nf *IdentityNotFoundError
	var re *IdentityResolutionError
	return stderr.As(e, &nf) || stderr.As(e, &re)
}
