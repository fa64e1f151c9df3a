package session

import (
	"errors"
	"fmt"
)

type ActionErrorKind string

const (
	ActionErrorInvalid   ActionErrorKind = "invalid"
	ActionErrorConflict  ActionErrorKind = "conflict"
	ActionErrorTransport ActionErrorKind = "transport"
	ActionErrorStream    ActionErrorKind = "stream"
)

// ActionError is the single error shape every controller action returns.
// Nothing below the controller boundary leaks uncaught into callers.
type ActionError struct {
	Kind    ActionErrorKind
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *ActionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func AsActionError(err error) *ActionError {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr
	}
	return nil
}

func invalidError(message string, err error) *ActionError {
	return &ActionError{Kind: ActionErrorInvalid, Message: message, Err: err}
}

func conflictError(message string, err error) *ActionError {
	return &ActionError{Kind: ActionErrorConflict, Message: message, Err: err}
}

func transportError(message string, err error) *ActionError {
	return &ActionError{Kind: ActionErrorTransport, Message: message, Err: err}
}

func streamError(message string, err error) *ActionError {
	return &ActionError{Kind: ActionErrorStream, Message: message, Err: err}
}
