package errors

import "errors"

// TransportError wraps a transcription-stream transport failure with a
// retryability classification. The stream supervisor reconnects on retryable
// errors and gives up on deliberate closes.
type TransportError struct {
	// Op is the operation that failed (dial, read, write).
	Op string

	// Err is the underlying error.
	Err error

	// Retryable indicates whether the supervisor should attempt to reconnect.
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport: " + e.Op + " failed"
	}
	return "transport: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a retryable transport error for op.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retryable: true}
}

// NewFatalTransportError creates a non-retryable transport error for op.
func NewFatalTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err, Retryable: false}
}

// IsRetryable reports whether err should trigger a reconnect attempt.
// Deliberate closes (ErrStreamClosed) are never retryable; unclassified
// errors default to retryable, matching the "retry until told to stop"
// recovery policy for the external stream.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStreamClosed) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return true
}
