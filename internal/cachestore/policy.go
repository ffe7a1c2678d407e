package cachestore

import (
	"fmt"
	"strings"
)

// FetchPolicy controls whether GetOrFetch may call the fetch function.
type FetchPolicy int

const (
	// FetchIfAbsent returns cached values and fetches only on a miss.
	FetchIfAbsent FetchPolicy = iota
	// CacheOnly never fetches; a miss yields ErrNotCached.
	CacheOnly
	// ForceRefresh always fetches and overwrites the cached value.
	ForceRefresh
)

func (p FetchPolicy) String() string {
	switch p {
	case CacheOnly:
		return "cache-only"
	case ForceRefresh:
		return "force-refresh"
	default:
		return "fetch-if-absent"
	}
}

// ParseFetchPolicy accepts cache-only, fetch-if-absent, or force-refresh.
// Underscores are treated as hyphens and case is ignored.
func ParseFetchPolicy(value string) (FetchPolicy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
	switch normalized {
	case "", "fetch-if-absent":
		return FetchIfAbsent, nil
	case "cache-only":
		return CacheOnly, nil
	case "force-refresh":
		return ForceRefresh, nil
	default:
		return FetchIfAbsent, fmt.Errorf("unknown fetch policy %q (want cache-only, fetch-if-absent, or force-refresh)", value)
	}
}
