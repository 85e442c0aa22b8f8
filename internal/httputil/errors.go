// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// ErrorKind classifies a failed fetch attempt. Every kind is retried under
// the same policy; the kind only shapes messages and metrics.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindHTTPStatus
	KindTimeout
	KindConnection
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTPStatus:
		return "http_status"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// FetchError is the typed result of a failed attempt.
type FetchError struct {
	Kind ErrorKind

	// StatusCode is set for KindHTTPStatus.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	case KindEmptyResponse:
		return "empty response: downloaded file is 0 bytes"
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrEmptyResponse is wrapped by FetchErrors of KindEmptyResponse.
var ErrEmptyResponse = errors.New("empty response")

// StatusError builds the error for a non-success HTTP status.
func StatusError(code int, rawURL string) *FetchError {
	return &FetchError{
		Kind:       KindHTTPStatus,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status from %s", rawURL),
	}
}

// EmptyResponse builds the error for a zero-byte result.
func EmptyResponse() *FetchError {
	return &FetchError{Kind: KindEmptyResponse, Err: ErrEmptyResponse}
}

// Classify wraps a transport error in a FetchError of the matching kind.
// Errors that are already FetchErrors are returned unchanged.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return &FetchError{Kind: KindConnection, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return &FetchError{Kind: KindConnection, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && (errors.Is(urlErr.Err, io.EOF) || errors.Is(urlErr.Err, io.ErrUnexpectedEOF)) {
		return &FetchError{Kind: KindConnection, Err: err}
	}

	return &FetchError{Kind: KindUnknown, Err: err}
}

// KindOf returns the kind of err, or KindUnknown when it is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
