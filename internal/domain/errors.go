package domain

import "fmt"

// NotFoundError reports a missing local entity (rule, shop). Permanent: it
// aborts the enclosing job or request without retry.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StagingError reports user errors returned by the staged-upload target
// request, surfaced before any transport attempt is made.
type StagingError struct {
	Message string
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staged upload rejected: %s", e.Message)
}

// UploadError reports an unsuccessful transport response while transferring
// the payload file to the staged target.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("staged upload transfer failed: status %d: %s", e.StatusCode, e.Body)
}

// SubmissionError reports a rejected bulk-mutation submission: either the
// remote call returned user errors or it omitted an operation identifier.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("bulk submission rejected: %s", e.Message)
}

// TransportError wraps a network-level failure of a remote call. It
// propagates up and aborts the enclosing job or request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
