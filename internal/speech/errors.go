// Package speech wraps a speech-to-text engine behind a session-scoped recognizer.
package speech

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by Start once the recognizer has been destroyed.
var ErrDestroyed = errors.New("speech recognizer destroyed")

// ErrorCode identifies why a recognition session failed. Values follow the
// platform recognizer codes so engine adapters can pass them through.
type ErrorCode int

const (
	ErrorNetworkTimeout          ErrorCode = 1
	ErrorNetwork                 ErrorCode = 2
	ErrorAudio                   ErrorCode = 3
	ErrorServer                  ErrorCode = 4
	ErrorClient                  ErrorCode = 5
	ErrorSpeechTimeout           ErrorCode = 6
	ErrorNoMatch                 ErrorCode = 7
	ErrorRecognizerBusy          ErrorCode = 8
	ErrorInsufficientPermissions ErrorCode = 9
)

// Message renders the code for display.
func (c ErrorCode) Message() string {
	switch c {
	case ErrorAudio:
		return "audio recording error"
	case ErrorClient:
		return "client error"
	case ErrorInsufficientPermissions:
		return "insufficient permissions"
	case ErrorNetwork:
		return "network error"
	case ErrorNetworkTimeout:
		return "network timeout"
	case ErrorNoMatch:
		return "no speech match"
	case ErrorRecognizerBusy:
		return "recognizer busy"
	case ErrorServer:
		return "server error"
	case ErrorSpeechTimeout:
		return "no speech input"
	default:
		return "unknown error"
	}
}

func (c ErrorCode) String() string {
	return fmt.Sprintf("%s (%d)", c.Message(), int(c))
}

// Error adapts a code plus cause into an error value for logs.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.Message()
	}
	return fmt.Sprintf("%s: %v", e.Code.Message(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the recognizer code from err, defaulting to ErrorClient.
func CodeOf(err error) ErrorCode {
	var speechErr *Error
	if errors.As(err, &speechErr) {
		return speechErr.Code
	}
	return ErrorClient
}
