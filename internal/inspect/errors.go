package inspect

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind classifies inspection failures.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindUnsupported      Kind = "unsupported_type"
	KindUnknown          Kind = "unknown"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupported      = errors.New("unsupported file type")
	ErrUnknown          = errors.New("inspection failed")
)

// Error is returned by Inspect for every failure.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorKind exposes the classification for callers that map errors to
// user-facing categories.
func (e *Error) ErrorKind() string { return string(e.Kind) }

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindUnsupported:
		return ErrUnsupported
	default:
		return ErrUnknown
	}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

func classifyOSError(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindUnknown
	}
}

func wrapOSError(path, message string, err error) *Error {
	return &Error{Kind: classifyOSError(err), Path: path, Message: message, Err: err}
}
