package xdcc

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when the query is empty after trimming.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrInvalidPage is returned for pages below 1, upstream numbering
	// is 1-based.
	ErrInvalidPage = errors.New("page numbering starts at 1")
)

// TransportKind distinguishes the ways the network round trip can fail.
type TransportKind int

const (
	KindConnection TransportKind = iota
	KindTimeout
	KindStatus
	KindBodyTooLarge
)

func (k TransportKind) String() string {
	switch k {
	case KindConnection:
		return "connection failed"
	case KindTimeout:
		return "timed out"
	case KindStatus:
		return "unexpected status"
	case KindBodyTooLarge:
		return "response body too large"
	}
	return "unknown"
}

// TransportError reports a failed round trip to the aggregator. It is
// never retried automatically; the caller decides what to do with it.
type TransportError struct {
	Kind TransportKind
	// StatusCode is set when Kind is KindStatus.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("transport: unexpected status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("transport: %s", e.Kind)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a body no entries could be recovered from, as
// opposed to a body that simply contains no matches. It is distinct
// from TransportError so callers can tell "the service is down" apart
// from "the service returned nothing useful".
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeError reports a single record field that did not match its
// expected format. Records failing to decode are skipped, not fatal.
type DecodeError struct {
	// Field is the upstream field name, e.g. "fsize".
	Field string
	// Value is the raw value as received.
	Value string
	// Expected describes the accepted format, e.g. "[1.1M]".
	Expected string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q, expected %s: %s", e.Field, e.Value, e.Expected, e.Err)
	}
	return fmt.Sprintf("invalid %s %q, expected %s", e.Field, e.Value, e.Expected)
}

func (e *DecodeError) Unwrap() error { return e.Err }
