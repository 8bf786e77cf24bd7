package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// FetchError is returned when the server answers with a non-success status
type FetchError struct {
	Method string
	Path   string
	Status int
	Body   string
	Detail string // human readable detail extracted from the body, if any
	Code   string // machine readable error code, if the server sent one
}

func (e *FetchError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// IsClientError reports whether the server rejected the request (4xx)
func (e *FetchError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsNotFound reports whether the server does not know the resource (404)
func (e *FetchError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// MalformedResponseError is returned when a success body cannot be decoded
type MalformedResponseError struct {
	Path string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// newFetchError builds a FetchError, pulling the detail and code out of the
// error bodies the server is known to send:
//
//	{"detail": "Seer already inspected someone this night"}
//	{"detail": {"code": "ALREADY_ACTED", "message": "..."}}
//	{"error": {"code": "ALREADY_ACTED", "message": "..."}}
func newFetchError(method, path string, status int, body []byte) *FetchError {
	fe := &FetchError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   string(body),
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  *errorInfo      `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fe
	}

	if len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			fe.Detail = detail
		} else {
			var info errorInfo
			if err := json.Unmarshal(envelope.Detail, &info); err == nil {
				fe.Detail = info.Message
				fe.Code = info.Code
			}
		}
	}
	if envelope.Error != nil {
		if fe.Detail == "" {
			fe.Detail = envelope.Error.Message
		}
		if fe.Code == "" {
			fe.Code = envelope.Error.Code
		}
	}
	return fe
}

// errorInfo contains structured error details
type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
