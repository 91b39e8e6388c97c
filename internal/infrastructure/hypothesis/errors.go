package hypothesis

import (
	"errors"
	"fmt"
)

// ErrGroupNotFound indicates no group with the requested name is visible
// to the credential set.
var ErrGroupNotFound = errors.New("hypothesis: group not found")

// PostRejectedError carries the store's non-2xx answer to a create
// request. The driver records it and moves on to the next record.
type PostRejectedError struct {
	StatusCode int
	Body       string
}

func (e *PostRejectedError) Error() string {
	return fmt.Sprintf("hypothesis: post rejected with %d: %s", e.StatusCode, e.Body)
}

// DeleteFailedError carries a failed delete during purge. Purge
// accumulates these instead of aborting.
type DeleteFailedError struct {
	ID         string
	StatusCode int
	Body       string
}

func (e *DeleteFailedError) Error() string {
	return fmt.Sprintf("hypothesis: delete of %s failed with %d: %s", e.ID, e.StatusCode, e.Body)
}

// apiError is the raw non-2xx answer before the caller classifies it.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("hypothesis: API error %d: %s", e.StatusCode, e.Body)
}

// IsPostRejected checks whether err is a store write rejection.
func IsPostRejected(err error) bool {
	var postErr *PostRejectedError
	return errors.As(err, &postErr)
}
