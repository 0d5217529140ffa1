package authclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call to the auth service failed.
type Kind string

const (
	KindHTTP    Kind = "http"    // service answered with a non-2xx status
	KindTimeout Kind = "timeout" // deadline hit before a response arrived
	KindNetwork Kind = "network" // connection could not be established
	KindRequest Kind = "request" // request could not be built or sent
	KindDecode  Kind = "decode"  // 2xx with a body that is not the expected JSON
)

// Error is returned for every failed auth service call.
type Error struct {
	Op      string
	Kind    Kind
	Status  int // 0 unless Kind is KindHTTP or KindDecode
	Message string
	Body    []byte
	// Truncated reports that Body was cut at the read limit.
	Truncated bool
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("auth %s http error: status=%d body=%s", e.Op, e.Status, truncate(string(e.Body), 512))
	default:
		if e.Err != nil {
			return fmt.Sprintf("auth %s %s error: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("auth %s %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsValidationFailure reports whether err is a structured validation rejection (status 400).
func IsValidationFailure(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindHTTP && apiErr.Status == http.StatusBadRequest
}

// AsError unwraps err into *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}
