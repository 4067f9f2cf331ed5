// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import "fmt"

// UnavailableError reports that the registry could not be reached or
// answered with a non-success HTTP status.
type UnavailableError struct {
	URL    string
	Status int // 0 when the transport failed before a response arrived
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("registry returned HTTP %d for %s", e.Status, e.URL)
	}
	return fmt.Sprintf("registry unreachable at %s: %v", e.URL, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ParseError reports that a registry response body could not be
// decoded into the expected schema.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing registry response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
