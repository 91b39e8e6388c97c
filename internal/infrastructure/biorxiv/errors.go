package biorxiv

import (
	"errors"
	"fmt"
)

// FeedUnavailableError means a feed page could not be fetched after the
// retry budget was spent. It is fatal to the run: the stream stops and no
// completeness guarantee holds for the date range.
type FeedUnavailableError struct {
	URL string
	Err error
}

func (e *FeedUnavailableError) Error() string {
	return fmt.Sprintf("biorxiv: feed unavailable at %s: %v", e.URL, e.Err)
}

func (e *FeedUnavailableError) Unwrap() error {
	return e.Err
}

// IsFeedUnavailable checks whether err is a feed exhaustion failure.
func IsFeedUnavailable(err error) bool {
	var feedErr *FeedUnavailableError
	return errors.As(err, &feedErr)
}
