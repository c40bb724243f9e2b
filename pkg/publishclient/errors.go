package publishclient

import (
	"errors"
	"fmt"

	"github.com/nais/publish/pkg/deployment"
)

type ExitCode int

// Exit codes are part of the command line interface and must not be renumbered.
const (
	ExitSuccess ExitCode = iota
	ExitDeploymentFailure
	ExitNoDeployment
	ExitUnavailable
	ExitInvocationFailure
	ExitInternalError
	ExitTimeout
)

type Error struct {
	Code ExitCode
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(code ExitCode, format string, args ...interface{}) error {
	return &Error{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

func ErrorWrap(code ExitCode, err error) error {
	return &Error{
		Code: code,
		Err:  err,
	}
}

// ErrorExitCode returns the process exit code for an error returned by this package.
// Errors not carrying an exit code are reported as internal errors.
func ErrorExitCode(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ExitInternalError
}

// ErrorStatus converts a finished deployment status into the error reported to the user.
func ErrorStatus(status *deployment.Status) error {
	switch status.State {
	case deployment.StateSuccess:
		return nil
	case deployment.StateFailed:
		message := status.Message
		if message == "" {
			message = deployment.DefaultFailureMessage
		}
		return Errorf(ExitDeploymentFailure, "deployment failed: %s", message)
	default:
		return Errorf(ExitInternalError, "deployment has not finished: %s", status.State)
	}
}
