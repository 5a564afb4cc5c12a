package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
)

// Response headers written by ApplyHeaders.
const (
	HeaderScope      = "X-RateLimit-Scope"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// HeaderSink is anything that exposes a mutable header set, such as an
// http.ResponseWriter.
type HeaderSink interface {
	Header() http.Header
}

// ApplyHeaders writes the scope and remaining allowance to sink, plus
// Retry-After in whole seconds when d is a denial.
func ApplyHeaders(sink HeaderSink, scope string, d Decision) {
	if sink == nil {
		return
	}
	h := sink.Header()
	h.Set(HeaderScope, scope)
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))

	if d.Allowed || d.RetryAfterMs == nil {
		return
	}
	secs := (*d.RetryAfterMs + 999) / 1000
	if secs < 1 {
		secs = 1
	}
	h.Set(HeaderRetryAfter, strconv.FormatInt(secs, 10))
}

// ClientIdentifier returns the first address in X-Forwarded-For, or
// UnknownClient when the header is absent or empty.
func ClientIdentifier(r *http.Request) string {
	if r == nil {
		return UnknownClient
	}
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return UnknownClient
	}
	first, _, _ := strings.Cut(xff, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return UnknownClient
}
