package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers need to react to it, not by
// which collaborator produced it.
type Kind string

const (
	// KindInvalidInput covers bad media types, oversized uploads, empty
	// extracted text. Surfaced immediately, never retried.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound covers missing documents, analyses, sessions.
	KindNotFound Kind = "not_found"
	// KindExternalService covers OCR/embedding/LLM/vector-store failures.
	// Retried with bounded backoff at the point of call.
	KindExternalService Kind = "external_service"
	// KindConfigMismatch covers embedding provider/dimension drift between
	// index time and query time. Fatal; silent mismatch corrupts search.
	KindConfigMismatch Kind = "config_mismatch"
	// KindPartialFailure covers one-of-many failures inside a batch whose
	// semantics tolerate partial results.
	KindPartialFailure Kind = "partial_failure"
)

// Error is the typed failure carried across component boundaries.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "contractsense: nil error"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Op, msg, e.Kind)
	}
	return fmt.Sprintf("%s (kind=%s)", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match on kind via the sentinel helpers below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func E(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func InvalidInput(op, message string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func External(op, message string, retryable bool, err error) *Error {
	return &Error{Kind: KindExternalService, Op: op, Message: message, Retryable: retryable, Err: err}
}

func ConfigMismatch(op, message string) *Error {
	return &Error{Kind: KindConfigMismatch, Op: op, Message: message}
}

func Partial(op, message string, err error) *Error {
	return &Error{Kind: KindPartialFailure, Op: op, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from any error chain. Unclassified
// errors report as external failures: the safe default for retry policy
// is "maybe transient", and for user messaging it is "tooling failure",
// which keeps absence-of-evidence distinguishable from breakage.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindExternalService
}

// IsRetryable reports whether the error chain allows another attempt.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Retryable
	}
	return false
}

// Std-lib passthroughs so callers import a single errors package.
func Is(err, target error) bool  { return errors.Is(err, target) }
func As(err error, target any) bool {
	return errors.As(err, target)
}
func New(text string) error { return errors.New(text) }
