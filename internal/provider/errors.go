package provider

import (
	"errors"
	"net/http"
)

// Code identifies a class of upstream failure. The set is closed.
type Code string

const (
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeNotFound            Code = "NOT_FOUND"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeInternalError       Code = "INTERNAL_ERROR"
)

// Status returns the outward HTTP status paired with the code.
func (c Code) Status() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UpstreamError represents a failed provider operation
type UpstreamError struct {
	Status         int    `json:"-"`
	Code           Code   `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"-"` // zero when no response was received
	UpstreamBody   string `json:"-"`
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// NewError builds an UpstreamError whose status follows its code.
func NewError(code Code, message string) *UpstreamError {
	return &UpstreamError{
		Status:  code.Status(),
		Code:    code,
		Message: message,
	}
}

// MapStatus translates a non-2xx upstream status into the outward taxonomy.
// Every 4xx other than 404 and 429 collapses to 400 since callers cannot act
// on the difference.
func MapStatus(upstreamStatus int, body string) *UpstreamError {
	var e *UpstreamError
	switch {
	case upstreamStatus == http.StatusNotFound:
		e = NewError(CodeNotFound, "Upstream resource not found")
	case upstreamStatus == http.StatusTooManyRequests:
		e = NewError(CodeRateLimited, "Upstream rate limit exceeded")
	case upstreamStatus >= 400 && upstreamStatus < 500:
		e = NewError(CodeBadRequest, "Upstream rejected the request")
	default:
		e = NewError(CodeUpstreamUnavailable, "Upstream service unavailable")
	}
	e.UpstreamStatus = upstreamStatus
	e.UpstreamBody = body
	return e
}

// AsUpstream normalizes any error into an UpstreamError. Errors that did not
// originate from a provider are reported as INTERNAL_ERROR.
func AsUpstream(err error) *UpstreamError {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	return NewError(CodeInternalError, err.Error())
}

// IsCode reports whether err is an UpstreamError carrying code.
func IsCode(err error, code Code) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Code == code
}
