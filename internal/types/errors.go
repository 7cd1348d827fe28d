package types

import "fmt"

// ErrorKind classifies everything that can go wrong while driving an
// operation against external services.
type ErrorKind string

const (
	// KindPrecondition marks invalid caller input.
	KindPrecondition ErrorKind = "precondition"
	// KindPostcondition marks an external reply that failed normalization.
	KindPostcondition ErrorKind = "postcondition"
	// KindCall marks a transport-level failure of the outbound call itself.
	KindCall ErrorKind = "call"
	// KindBackend marks a structured error string returned by the external
	// service.
	KindBackend ErrorKind = "backend"
	// KindTemporarilyUnavailable marks lock contention; the position is busy
	// with another operation.
	KindTemporarilyUnavailable ErrorKind = "temporarily_unavailable"
)

// Error is the single error type crossing operation boundaries. Operations
// accumulate them from independent substeps and surface the full list.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// Set for KindCall only.
	Method     string    `json:"method,omitempty"`
	CanisterID Principal `json:"canister_id,omitempty"`

	// Set for KindTemporarilyUnavailable only.
	SecondsRemaining uint64 `json:"seconds_remaining,omitempty"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCall:
		return fmt.Sprintf("call to %s.%s failed: %s", e.CanisterID, e.Method, e.Message)
	case KindTemporarilyUnavailable:
		return fmt.Sprintf("temporarily unavailable: %s (%d seconds remaining)", e.Message, e.SecondsRemaining)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func Preconditionf(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func Postconditionf(format string, args ...any) *Error {
	return &Error{Kind: KindPostcondition, Message: fmt.Sprintf(format, args...)}
}

func CallError(method string, canisterID Principal, err error) *Error {
	return &Error{
		Kind:       KindCall,
		Method:     method,
		CanisterID: canisterID,
		Message:    err.Error(),
	}
}

func BackendError(message string) *Error {
	return &Error{Kind: KindBackend, Message: message}
}

func TemporarilyUnavailable(holder string, secondsRemaining uint64) *Error {
	return &Error{
		Kind:             KindTemporarilyUnavailable,
		Message:          fmt.Sprintf("the position is locked by a %s operation", holder),
		SecondsRemaining: secondsRemaining,
	}
}

// IsBackend reports whether err is a backend error carrying exactly the given
// message. Tolerated DEX errors are matched this way.
func IsBackend(err *Error, message string) bool {
	return err != nil && err.Kind == KindBackend && err.Message == message
}
