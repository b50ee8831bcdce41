package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a strategy service call failed
type ErrorKind string

const (
	// ErrorKindNotFound means the server reported the ticker or data as unavailable
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindServer covers every other non-success HTTP response
	ErrorKindServer ErrorKind = "server_error"
	// ErrorKindMalformed means a success status with an unusable body
	ErrorKindMalformed ErrorKind = "malformed_response"
	// ErrorKindTransport means the request never produced an HTTP response
	ErrorKindTransport ErrorKind = "transport_failure"
)

// User-facing messages for failures that carry no server-authored reason
const (
	MessageServerError = "Unexpected server error"
	MessageMalformed   = "Something went wrong"
	MessageTransport   = "Unable to reach the strategy service"
)

// FetchError is the single error type returned by StrategyService.
// Message is safe to show to the user; Err keeps the underlying cause.
type FetchError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage extracts the text to display for err
func UserMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return MessageMalformed
}

// KindOf returns the ErrorKind of err, or ErrorKindTransport for foreign errors
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrorKindTransport
}

// IsNotFound reports whether err is a server-reported not-found
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == ErrorKindNotFound
}

func notFoundError(detail string) *FetchError {
	return &FetchError{Kind: ErrorKindNotFound, Message: detail, StatusCode: 404}
}

func serverError(status int, cause error) *FetchError {
	return &FetchError{Kind: ErrorKindServer, Message: MessageServerError, StatusCode: status, Err: cause}
}

func malformedError(message string, cause error) *FetchError {
	return &FetchError{Kind: ErrorKindMalformed, Message: message, Err: cause}
}

func transportError(cause error) *FetchError {
	return &FetchError{Kind: ErrorKindTransport, Message: MessageTransport, Err: cause}
}
