package projects

import "fmt"

// ErrorKind classifies why a fetch failed. Callers that only display the
// message can ignore it.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindNetwork
	KindService
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNetwork:
		return "network"
	case KindService:
		return "service"
	case KindMalformed:
		return "malformed_response"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FallbackMessage is shown when the backend gave no message of its own.
const FallbackMessage = "Could not load projects"

// ErrorInfo is the only error type Fetch returns.
type ErrorInfo struct {
	Kind    ErrorKind
	Status  int    // HTTP status; zero when no response was received
	Message string // human-readable, safe to show to the user
	Err     error  // underlying cause, for logs
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func (e *ErrorInfo) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, status int, message string, cause error) *ErrorInfo {
	if message == "" {
		message = FallbackMessage
	}
	return &ErrorInfo{Kind: kind, Status: status, Message: message, Err: cause}
}
