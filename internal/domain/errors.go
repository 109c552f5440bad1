package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable rejection code sent to clients.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeUnknownParticipant Code = "UNKNOWN_PARTICIPANT"

	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotYourTurn  Code = "NOT_YOUR_TURN"
	CodeNotJoined    Code = "NOT_JOINED"

	CodeSessionFull     Code = "SESSION_FULL"
	CodeSessionEnded    Code = "SESSION_ENDED"
	CodeAlreadyStarted  Code = "ALREADY_STARTED"
	CodeNotStarted      Code = "NOT_STARTED"
	CodeHostCannotLeave Code = "HOST_CANNOT_LEAVE"

	CodeNoQuestionsAvailable Code = "NO_QUESTIONS_AVAILABLE"
	CodeQuestionsExhausted   Code = "QUESTIONS_EXHAUSTED"

	CodeInvalidSettings Code = "INVALID_SETTINGS"
	CodeInvalidPayload  Code = "INVALID_PAYLOAD"
	CodeInvalidName     Code = "INVALID_NAME"
	CodeUnknownTheme    Code = "UNKNOWN_THEME"

	CodeRateLimited Code = "RATE_LIMITED"
)

// Kind groups codes into the categories adapters map onto transport errors.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindExhausted
	KindValidation
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindExhausted:
		return "exhausted"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Kind maps a code to its category.
func (c Code) Kind() Kind {
	switch c {
	case CodeSessionNotFound, CodeUnknownParticipant:
		return KindNotFound
	case CodeUnauthorized, CodeNotYourTurn, CodeNotJoined:
		return KindUnauthorized
	case CodeSessionFull, CodeSessionEnded, CodeAlreadyStarted, CodeNotStarted, CodeHostCannotLeave:
		return KindConflict
	case CodeNoQuestionsAvailable, CodeQuestionsExhausted:
		return KindExhausted
	case CodeInvalidSettings, CodeInvalidPayload, CodeInvalidName, CodeUnknownTheme:
		return KindValidation
	case CodeRateLimited:
		return KindRateLimited
	default:
		return KindInternal
	}
}

// Error is a named rejection. Rejections never mutate session state.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause to a copy of a sentinel rejection.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Cause: cause}
}

// Wrapf is Wrap with a formatted cause.
func Wrapf(sentinel *Error, format string, args ...any) *Error {
	return Wrap(sentinel, fmt.Errorf(format, args...))
}

var (
	ErrSessionNotFound    = NewError(CodeSessionNotFound, "Session not found")
	ErrUnknownParticipant = NewError(CodeUnknownParticipant, "Participant is not part of this session")

	ErrUnauthorized = NewError(CodeUnauthorized, "Unauthorized")
	ErrNotYourTurn  = NewError(CodeNotYourTurn, "Not your turn")
	ErrNotJoined    = NewError(CodeNotJoined, "Join a room first")

	ErrSessionFull     = NewError(CodeSessionFull, "Session is full")
	ErrSessionEnded    = NewError(CodeSessionEnded, "Session has ended")
	ErrAlreadyStarted  = NewError(CodeAlreadyStarted, "Session already started")
	ErrNotStarted      = NewError(CodeNotStarted, "Session has not started")
	ErrHostCannotLeave = NewError(CodeHostCannotLeave, "Host cannot leave the session")

	ErrNoQuestionsAvailable = NewError(CodeNoQuestionsAvailable, "No more questions available in this theme")
	ErrQuestionsExhausted   = NewError(CodeQuestionsExhausted, "No more questions available")

	ErrInvalidSettings = NewError(CodeInvalidSettings, "Invalid settings")
	ErrInvalidPayload  = NewError(CodeInvalidPayload, "Invalid payload")
	ErrInvalidName     = NewError(CodeInvalidName, "Invalid name")
	ErrUnknownTheme    = NewError(CodeUnknownTheme, "Unknown theme")

	ErrRateLimited = NewError(CodeRateLimited, "Too many requests, please try again later")
)

// KindOf returns the category of err, KindInternal for anything that is not a rejection.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Code.Kind()
	}
	return KindInternal
}

// CodeOf returns the rejection code of err, CodeUnknown otherwise.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}
