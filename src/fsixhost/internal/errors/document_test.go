package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "document not found",
			err:  &DocumentNotFoundError{},
		},
		{
			name: "document outdated",
			err:  &DocumentOutdatedError{},
		},
		{
			name: "no client",
			err:  &NoClientFoundError{},
		},
		{
			name: "init failure",
			err:  &InitFailure{},
		},
		{
			name: "transport",
			err:  &TransportError{},
		},
		{
			name: "protocol violation",
			err:  &ProtocolViolationError{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.err)
			assert.True(t, len(tt.err.Error()) > 0)
		})
	}
}
