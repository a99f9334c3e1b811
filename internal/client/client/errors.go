package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrNoCredentials = errors.New("no stored credentials")
)

// AuthError reports a rejected login or a failed token refresh. It is fatal
// to the in-flight call only; later calls may log in again.
type AuthError struct {
	// Message is the reason given by the service, when it gave one.
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "":
		return "authentication failed: " + e.Message
	case e.Err != nil:
		return "authentication failed: " + e.Err.Error()
	default:
		return "authentication failed"
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes every AuthError match ErrUnauthorized.
func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// RequestError is a non-2xx response that survived the retry policy.
type RequestError struct {
	Status     int
	StatusText string
	// Body is the decoded JSON body, the raw text for non-JSON responses, or
	// an empty object when the body could not be parsed.
	Body    any
	RawBody []byte
	URL     string
	Method  string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message())
	if remote := e.RemoteMessage(); remote != "" && remote != e.Message() {
		msg += " (" + remote + ")"
	}
	return msg
}

// Message prefers the status line text and falls back to the body.
func (e *RequestError) Message() string {
	if e.StatusText != "" {
		return e.StatusText
	}
	switch b := e.Body.(type) {
	case nil:
		return http.StatusText(e.Status)
	case string:
		return b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(raw)
	}
}

// RemoteMessage returns the "error" (or "message") field of a JSON body.
func (e *RequestError) RemoteMessage() string {
	m, ok := e.Body.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// IsStatus reports whether err carries a RequestError with the given status.
func IsStatus(err error, status int) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == status
}

// ParseError is a response body that did not decode as its declared content
// type. The pipeline degrades it to an empty body and only logs it, except
// when a successful response cannot fill the caller's result.
type ParseError struct {
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q response body: %v", e.ContentType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
