package entity

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

// Identity is the stable key used to find the Session for a document.
// It is either a normalized document path or a synthetic interactive-<N> key.
type Identity string

// InteractiveIdentity returns the synthetic identity for a REPL instance number.
func InteractiveIdentity(instance string) Identity {
	return Identity("interactive-" + instance)
}

// Session is a live, handshake-completed connection to one daemon process.
type Session interface {
	// Eval sends code plus a merged argument map to the daemon.
	Eval(ctx context.Context, code string, args map[string]interface{}) (*EvalResult, error)
	// Autocomplete returns candidates for the word before caret, an absolute character offset into text.
	Autocomplete(ctx context.Context, text string, caret int, word string) ([]CompletionItem, error)
	// Diagnostics returns whole-document diagnostics.
	Diagnostics(ctx context.Context, text string) ([]Diagnostic, error)
	// IsRunning reports the liveness flag. It never goes from false back to true.
	IsRunning() bool
	// Done is closed once the session is dead.
	Done() <-chan struct{}
	// Dispose closes the transport and terminates the daemon. It is safe to call more than once.
	Dispose() error
}

// SessionEntry is the registry record for a logical identity.
type SessionEntry struct {
	Identity  Identity  `json:"identity" zap:"identity"`
	Session   Session   `json:"-" zap:"-"`
	Client    uuid.UUID `json:"client" zap:"client"`
	InitLine  string    `json:"initLine" zap:"initLine"`
	WorkDir   string    `json:"workDir" zap:"workDir"`
	StartedAt time.Time `json:"startedAt" zap:"startedAt"`
}

// IsRunning is a nil-safe liveness check on the entry's session.
func (e *SessionEntry) IsRunning() bool {
	return e != nil && e.Session != nil && e.Session.IsRunning()
}
