package wallet

import (
	"errors"
	"fmt"
)

// Error values shared by the connection manager, the tools and the backends.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrConnection       = errors.New("connection error")
	ErrNotConnected     = errors.New("sdk not connected")
	ErrAlreadyConnected = errors.New("sdk already connected")
	ErrValidation       = errors.New("validation error")
	ErrUpstream         = errors.New("upstream error")
	ErrInvalidManager   = errors.New("invalid manager config")
)

// OperationError tags a failure with a stable operation.subject.code path.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

func (operationError OperationError) Error() string {
	return operationError.Path() + ": " + operationError.err.Error()
}

func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Path returns the dotted operation.subject.code identifier.
func (operationError OperationError) Path() string {
	return operationError.operation + "." + operationError.subject + "." + operationError.code
}

// WrapError tags err with its operation path; nil stays nil.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{operation: operation, subject: subject, code: code, err: err}
}

// ErrorCode returns the path of the outermost OperationError in err's chain,
// or an empty string when there is none.
func ErrorCode(err error) string {
	var operationError OperationError
	if errors.As(err, &operationError) {
		return operationError.Path()
	}
	return ""
}

// Upstream marks err as a backend failure unless it already carries one of
// the package sentinels.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrUpstream, ErrValidation, ErrNotConnected, ErrConnection} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
