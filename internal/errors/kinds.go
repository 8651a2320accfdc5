package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures so callers can react per category instead of
// inspecting raw collaborator errors.
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindConfiguration    Kind = "configuration"
	KindNotAuthenticated Kind = "not_authenticated"
	KindDuplicateEntry   Kind = "duplicate_entry"
	KindRemote           Kind = "remote"
	KindMalformedImport  Kind = "malformed_import"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindInFlight         Kind = "in_flight"
)

// Sentinels for errors.Is checks. A classified *Error matches the sentinel of its Kind.
var (
	ErrNotConfigured    = stderrors.New("backend is not configured")
	ErrNotAuthenticated = stderrors.New("not signed in")
	ErrDuplicateEntry   = stderrors.New("habit already completed today")
	ErrRemote           = stderrors.New("remote operation failed")
	ErrMalformedImport  = stderrors.New("malformed import document")
	ErrValidation       = stderrors.New("validation failed")
	ErrNotFound         = stderrors.New("not found")
	ErrInFlight         = stderrors.New("a write for this record is already in progress")
)

var sentinels = map[Kind]error{
	KindConfiguration:    ErrNotConfigured,
	KindNotAuthenticated: ErrNotAuthenticated,
	KindDuplicateEntry:   ErrDuplicateEntry,
	KindRemote:           ErrRemote,
	KindMalformedImport:  ErrMalformedImport,
	KindValidation:       ErrValidation,
	KindNotFound:         ErrNotFound,
	KindInFlight:         ErrInFlight,
}

// Error is a classified failure. Op names the operation ("add habit entry"),
// Message is the human-readable detail and Err the underlying cause, if any.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s, ok := sentinels[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = string(e.Kind)
		}
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil && e.Message != "" && e.Err.Error() != e.Message {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDuplicateEntry) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok {
		return s == target
	}
	return false
}

// New creates a classified error
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// DuplicateEntry classifies a rejected second completion of a habit on day.
// The message names the day unless it is today.
func DuplicateEntry(op, day, today string, err error) *Error {
	msg := "already completed today"
	if day != today {
		msg = "already completed on " + day
	}
	return &Error{Kind: KindDuplicateEntry, Op: op, Message: msg, Err: err}
}

// KindOf returns the classification of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	for kind, s := range sentinels {
		if stderrors.Is(err, s) {
			return kind
		}
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the message a person at the terminal should see.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindConfiguration:
		return "backend is not configured: set HABITFLOW_ENDPOINT and HABITFLOW_API_KEY (or run 'habitflow key set')"
	case KindNotAuthenticated:
		return "you are not signed in: run 'habitflow auth signin'"
	case KindInFlight:
		return "still saving, try again in a moment"
	}
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if KindOf(err) == KindDuplicateEntry {
		return "already completed today"
	}
	return err.Error()
}
