package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the persisted bearer token, "" when none is stored.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RequestObserver records outbound request outcomes. Code is 0 when the
// transport failed before a response arrived.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Transport attaches the stored bearer token and a request id to every
// outgoing request. Errors from the underlying round tripper are returned
// unchanged.
type Transport struct {
	Base     http.RoundTripper
	Tokens   TokenSource
	Observer RequestObserver
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if t.Tokens != nil {
		token, err := t.Tokens.Token(req.Context())
		if err != nil {
			closeBody(req)
			return nil, fmt.Errorf("httpx: load token: %w", err)
		}
		if token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(out)
	if t.Observer != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		t.Observer.ObserveRequest(out.Method, RouteLabel(out.URL.Path), code, time.Since(start))
	}
	return resp, err
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

// RouteLabel collapses identifiers in an API path so metrics keep a bounded
// label set: numeric segments become {id} and download names {filename}.
func RouteLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, "/api/download/"); ok && rest != "" {
		return "/api/download/{filename}"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
