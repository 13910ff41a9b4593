package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a local answer key file does not exist.
	ErrNotFound = errors.New("answer key not found")
	// ErrFetchFailed indicates the fetch capability could not produce the document.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrStructureNotFound indicates a required root container is missing.
	ErrStructureNotFound = errors.New("document structure not found")
	// ErrMalformedQuestion indicates a question panel lacks a usable identifier or answer table.
	ErrMalformedQuestion = errors.New("malformed question")
)

// FetchError wraps a failure of the fetch capability for one URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports FetchError as ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
