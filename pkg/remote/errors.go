package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchFailure matches every failed fetch: network errors, non 2xx
// statuses, unreadable bodies and undecodable payloads.
var ErrFetchFailure = errors.New("remote: fetch failed")

// Stage names the step of a fetch that failed.
type Stage string

const (
	// StageConfig marks an endpoint that cannot produce a request at all.
	// No retry can fix it.
	StageConfig   Stage = "config"
	StageRequest  Stage = "request"
	StageStatus   Stage = "status"
	StageRead     Stage = "read"
	StageDecode   Stage = "decode"
	StageCanceled Stage = "canceled"
)

// FetchError describes a failed fetch. It matches ErrFetchFailure and the
// underlying cause with errors.Is.
type FetchError struct {
	Endpoint string
	Stage    Stage
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s %s: status %d: %v", e.Stage, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("remote: %s %s: %v", e.Stage, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrFetchFailure, e.Err}
}

// Retryable reports whether repeating the request may succeed.
func (e *FetchError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Stage {
	case StageRequest, StageRead:
		return true
	case StageStatus:
		return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}
