package cachestore

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches any error returned by a fetch function.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrNotCached is returned for a miss under CacheOnly and for Delete of an absent key.
	ErrNotCached = errors.New("not cached")
	// ErrEmptyKey rejects keys that are blank after trimming.
	ErrEmptyKey = errors.New("cache key cannot be empty")
)

// FetchError reports a fetch function failure for one key.
type FetchError struct {
	Namespace string
	Key       string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %v", ErrFetchFailed, e.Namespace, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports true for ErrFetchFailed so callers need not type-assert.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
