package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnknownField        = errors.New("unknown_field")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not_found")
	ErrStale               = errors.New("stale_response")
	ErrMissingCustomerName = errors.New("missing_customer_name")
	ErrMissingRecordID     = errors.New("missing_record_id")
	ErrUnsupportedFormat   = errors.New("unsupported_format")
)

// Kind classifies a failed operation for the operator.
type Kind string

const (
	// KindValidationSkip marks input silently coerced; it is never returned.
	KindValidationSkip Kind = "validation_skip"
	KindSaveFailed     Kind = "save_failed"
	KindQueryFailed    Kind = "query_failed"
	KindDeleteFailed   Kind = "delete_failed"
	KindExportFailed   Kind = "export_failed"
)

// OpError reports a failed save, query, delete or export. Local state is
// left as it was before the operation.
type OpError struct {
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Status is the HTTP status behind the failure, or 0 for transport errors.
func (e *OpError) Status() int {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return se.Status
	}
	return 0
}

// Diagnostic is the store's error payload, if any.
func (e *OpError) Diagnostic() string {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return se.Diagnostic
	}
	return ""
}

// IsKind reports whether err is an OpError of the given kind.
func IsKind(err error, kind Kind) bool {
	var op *OpError
	return errors.As(err, &op) && op.Kind == kind
}

// StatusError is a non-2xx answer from the store.
type StatusError struct {
	Status     int
	Diagnostic string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Diagnostic)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("record store returned %d: %s", e.Status, msg)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// NewStatusError builds a StatusError from a response body, preferring the
// store's error envelope over raw text.
func NewStatusError(status int, body []byte) *StatusError {
	var env errorEnvelope
	diagnostic := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error.Message != "":
			diagnostic = env.Error.Message
			if env.Error.Type != "" && env.Error.Type != env.Error.Message {
				diagnostic = env.Error.Type + ": " + env.Error.Message
			}
		case env.Detail != "":
			diagnostic = env.Detail
		}
	}
	return &StatusError{Status: status, Diagnostic: diagnostic}
}
