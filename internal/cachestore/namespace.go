package cachestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"figfinder/internal/logging"
	"figfinder/internal/partkey"
)

// FetchFunc produces the value for a key on a cache miss.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Stats describes a namespace at a point in time.
type Stats struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Count   int    `json:"count"`
	Corrupt bool   `json:"corrupt"`
}

type snapshot[T any] struct {
	entries map[string]T
	corrupt bool
}

// Namespace is one independently persisted key-value map.
type Namespace[T any] struct {
	name     string
	path     string
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	lock    *flock.Flock
	current atomic.Pointer[snapshot[T]]
}

// OpenNamespace loads the namespace stored at path. A missing file is an empty
// namespace. An unreadable or unparsable file is logged and treated as empty.
func OpenNamespace[T any](name, path string, opts ...Option) *Namespace[T] {
	o := buildOptions(opts)
	n := &Namespace[T]{
		name:     name,
		path:     path,
		logger:   logging.NewComponentLogger(o.logger, "cachestore").With(logging.Args(logging.String(logging.FieldNamespace, name))...),
		observer: o.observer,
		lock:     flock.New(path + ".lock"),
	}
	n.current.Store(n.load())
	return n
}

// Name returns the namespace name.
func (n *Namespace[T]) Name() string { return n.name }

// Path returns the backing file path.
func (n *Namespace[T]) Path() string { return n.path }

// Get returns the cached value for key. It never fetches.
func (n *Namespace[T]) Get(key string) (T, bool) {
	value, ok := n.current.Load().entries[partkey.NormalizeID(key)]
	return value, ok
}

// Has reports whether key is cached.
func (n *Namespace[T]) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Value returns the cached value as an untyped interface for generic callers.
func (n *Namespace[T]) Value(key string) (any, bool) {
	value, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	return value, true
}

// GetOrFetch returns the value for key according to policy. Fetched values are
// stored and the namespace persisted before returning.
//
// A fetch failure returns a *FetchError and leaves the namespace untouched. A
// persist failure is logged and the fetched value is still returned; the
// namespace stays as it was so the next run fetches again.
func (n *Namespace[T]) GetOrFetch(ctx context.Context, key string, policy FetchPolicy, fetch FetchFunc[T]) (T, error) {
	var zero T
	key = partkey.NormalizeID(key)
	if key == "" {
		return zero, ErrEmptyKey
	}

	if policy != ForceRefresh {
		if value, ok := n.current.Load().entries[key]; ok {
			n.observer.ObserveLookup(n.name, LookupHit)
			return value, nil
		}
		n.observer.ObserveLookup(n.name, LookupMiss)
		if policy == CacheOnly {
			return zero, fmt.Errorf("%w: %s/%s", ErrNotCached, n.name, key)
		}
	} else {
		n.observer.ObserveLookup(n.name, LookupRefresh)
	}

	if fetch == nil {
		return zero, &FetchError{Namespace: n.name, Key: key, Err: errors.New("no fetch function configured")}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	// Another goroutine may have stored the key while we waited.
	if policy == FetchIfAbsent {
		if value, ok := n.current.Load().entries[key]; ok {
			return value, nil
		}
	}

	value, err := fetch(ctx, key)
	if err != nil {
		n.observer.ObserveFetchFailure(n.name)
		return zero, &FetchError{Namespace: n.name, Key: key, Err: err}
	}

	if err := n.commit(func(entries map[string]T) error {
		entries[key] = value
		return nil
	}); err != nil {
		n.observer.ObservePersistFailure(n.name)
		logging.WarnWithContext(n.logger, "cache persist failed; value not stored",
			"cache_persist_failed",
			logging.String("key", key),
			logging.String("path", n.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache directory permissions and free space"),
			logging.String(logging.FieldImpact, "value will be fetched again on the next run"),
		)
		return value, nil
	}

	n.logger.Debug("cached fetched entry", logging.String("key", key), logging.String("policy", policy.String()))
	return value, nil
}

// Put stores value under key and persists the namespace.
func (n *Namespace[T]) Put(key string, value T) error {
	key = partkey.NormalizeID(key)
	if key == "" {
		return ErrEmptyKey
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.commit(func(entries map[string]T) error {
		entries[key] = value
		return nil
	}); err != nil {
		n.observer.ObservePersistFailure(n.name)
		return fmt.Errorf("persist %s: %w", n.name, err)
	}
	return nil
}

// Delete removes key and persists the namespace. Removing an absent key
// returns ErrNotCached.
func (n *Namespace[T]) Delete(key string) error {
	key = partkey.NormalizeID(key)
	if key == "" {
		return ErrEmptyKey
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.commit(func(entries map[string]T) error {
		if _, ok := entries[key]; !ok {
			return fmt.Errorf("%w: %s/%s", ErrNotCached, n.name, key)
		}
		delete(entries, key)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotCached) {
			return err
		}
		n.observer.ObservePersistFailure(n.name)
		return fmt.Errorf("persist %s: %w", n.name, err)
	}
	n.logger.Debug("removed cache entry", logging.String("key", key))
	return nil
}

// Clear removes every entry and persists the empty namespace.
func (n *Namespace[T]) Clear() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.commit(func(entries map[string]T) error {
		clear(entries)
		return nil
	}); err != nil {
		n.observer.ObservePersistFailure(n.name)
		return fmt.Errorf("persist %s: %w", n.name, err)
	}
	n.logger.Debug("cleared namespace")
	return nil
}

// Keys returns every cached key in ascending order.
func (n *Namespace[T]) Keys() []string {
	entries := n.current.Load().entries
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached entries.
func (n *Namespace[T]) Len() int {
	return len(n.current.Load().entries)
}

// Stats reports the namespace size and whether its file failed to parse.
func (n *Namespace[T]) Stats() Stats {
	snap := n.current.Load()
	return Stats{
		Name:    n.name,
		Path:    n.path,
		Count:   len(snap.entries),
		Corrupt: snap.corrupt,
	}
}

// Reload re-reads the namespace file, picking up writes made by other processes.
func (n *Namespace[T]) Reload() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	entries, err := n.readFile()
	corrupt := false
	if err != nil {
		var parseErr *corruptFileError
		if !errors.As(err, &parseErr) {
			return err
		}
		n.warnCorrupt(parseErr.err)
		corrupt = true
	}
	n.swap(&snapshot[T]{entries: entries, corrupt: corrupt})
	return nil
}

func (n *Namespace[T]) load() *snapshot[T] {
	entries, err := n.readFile()
	corrupt := false
	var parseErr *corruptFileError
	switch {
	case err == nil:
	case errors.As(err, &parseErr):
		n.warnCorrupt(parseErr.err)
		corrupt = true
	default:
		logging.WarnWithContext(n.logger, "failed to read cache namespace",
			"cache_load_failed",
			logging.String("path", n.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the cache directory path and permissions"),
			logging.String(logging.FieldImpact, "namespace starts empty for this run"),
		)
		entries = make(map[string]T)
	}
	snap := &snapshot[T]{entries: entries, corrupt: corrupt}
	n.observer.ObserveEntries(n.name, len(entries))
	n.logger.Debug("loaded cache namespace", logging.Int("entry_count", len(entries)), logging.String("path", n.path))
	return snap
}

func (n *Namespace[T]) warnCorrupt(cause error) {
	logging.WarnWithContext(n.logger, "cache namespace file is corrupt; treating as empty",
		"cache_corrupt",
		logging.String("path", n.path),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "the next successful write replaces the file; remove it to reset now"),
		logging.String(logging.FieldImpact, "cached entries in this namespace are unavailable"),
	)
}

type corruptFileError struct {
	err error
}

func (e *corruptFileError) Error() string { return "parse cache file: " + e.err.Error() }

func (e *corruptFileError) Unwrap() error { return e.err }

// readFile returns the entries on disk. A file that fails to parse yields an
// empty map together with a *corruptFileError.
func (n *Namespace[T]) readFile() (map[string]T, error) {
	data, err := os.ReadFile(n.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]T), nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]T), nil
	}

	var raw map[string]T
	if err := json.Unmarshal(data, &raw); err != nil {
		return make(map[string]T), &corruptFileError{err: err}
	}
	entries := make(map[string]T, len(raw))
	for key, value := range raw {
		normalized := partkey.NormalizeID(key)
		if normalized == "" {
			continue
		}
		entries[normalized] = value
	}
	return entries, nil
}

// commit runs one read-modify-persist cycle under the file lock. Callers hold n.mu.
func (n *Namespace[T]) commit(mutate func(map[string]T) error) error {
	if err := os.MkdirAll(filepath.Dir(n.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := n.lock.Lock(); err != nil {
		return fmt.Errorf("lock cache file: %w", err)
	}
	defer func() {
		_ = n.lock.Unlock()
	}()

	// A corrupt file is replaced by this write.
	entries, err := n.readFile()
	var parseErr *corruptFileError
	if err != nil && !errors.As(err, &parseErr) {
		return err
	}
	if err := mutate(entries); err != nil {
		return err
	}
	if err := n.save(entries); err != nil {
		return err
	}
	n.swap(&snapshot[T]{entries: entries})
	return nil
}

func (n *Namespace[T]) swap(snap *snapshot[T]) {
	n.current.Store(snap)
	n.observer.ObserveEntries(n.name, len(snap.entries))
}

// save writes the namespace atomically via temp file and rename.
func (n *Namespace[T]) save(entries map[string]T) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(n.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(n.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, n.path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
