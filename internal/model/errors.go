package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a scan failed.
type ErrorKind string

const (
	ErrorKindEmptyInput   ErrorKind = "empty_input"
	ErrorKindFetchFailed  ErrorKind = "fetch_failed"
	ErrorKindDecodeFailed ErrorKind = "decode_failed"
)

// ErrEmptyInput is returned when a scan is requested for blank input.
var ErrEmptyInput = &ScanError{Kind: ErrorKindEmptyInput, Message: "url is required"}

// ScanError is the single user-facing failure of a scan.
type ScanError struct {
	Kind    ErrorKind
	URL     string
	Message string
	Err     error
}

func (e *ScanError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("scan failed: %s", e.Kind)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ScanError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
