package mapper

import (
	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
)

// RemoteExceptionToError translates a daemon exception and its inner exceptions into a RemoteError chain.
func RemoteExceptionToError(exc *entity.RemoteException) *errors.RemoteError {
	if exc == nil {
		return nil
	}

	result := &errors.RemoteError{
		Name:    exc.ClassName,
		Message: exc.Message,
		Cause:   RemoteExceptionToError(exc.InnerException),
	}
	if exc.StackTraceString != nil {
		result.Stack = *exc.StackTraceString
	}
	return result
}
