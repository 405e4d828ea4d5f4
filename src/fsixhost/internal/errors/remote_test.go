package errors

import (
	stderr "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteError(t *testing.T) {
	inner := &RemoteError{Name: "System.IO.FileNotFoundException", Message: "missing.dll"}
	outer := &RemoteError{Name: "System.TypeInitializationException", Message: "type init failed", Stack: "at Foo.Bar()", Cause: inner}

	assert.Equal(t, "System.TypeInitializationException: type init failed", outer.Error())
	assert.Equal(t, 2, outer.Depth())
	assert.Equal(t, "type init failed", (&RemoteError{Message: "type init failed"}).Error())

	var target *RemoteError
	require.True(t, stderr.As(outer.Unwrap(), &target))
	assert.Same(t, inner, target)
	assert.Nil(t, inner.Unwrap())

	assert.Equal(t, "System.TypeInitializationException: type init failed\n ---> System.IO.FileNotFoundException: missing.dll\nat Foo.Bar()", outer.Describe())
}

func TestInitFailure(t *testing.T) {
	tests := []struct {
		name    string
		failure *InitFailure
		want    string
	}{
		{
			name:    "process exited",
			failure: &InitFailure{Reason: InitFailureProcessExited, Code: 1},
			want:    "FsiX process exited with code 1",
		},
		{
			name:    "remote exception",
			failure: &InitFailure{Reason: InitFailureRemoteException, Exception: &RemoteError{Name: "E", Message: "bad project"}},
			want:    "fsix initialization failed: E: bad project",
		},
		{
			name:    "other",
			failure: &InitFailure{Reason: InitFailureOther, Err: New("dial refused")},
			want:    "fsix initialization failed: dial refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.failure.Error())
		})
	}

	t.Run("unwraps exception", func(t *testing.T) {
		ex := &RemoteError{Message: "m"}
		var target *RemoteError
		require.True(t, stderr.As(&InitFailure{Reason: InitFailureRemoteException, Exception: ex}, &target))
		assert.Same(t, ex, target)
	})
}
