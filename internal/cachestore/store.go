package cachestore

import (
	"fmt"
	"path/filepath"
	"strings"

	"figfinder/internal/catalog"
)

// Namespace names and their backing file names inside the cache directory.
const (
	AssembliesNamespace = "assemblies"
	PricesNamespace     = "prices"

	AssembliesFile = "minifigures.json"
	PricesFile     = "minifig_prices.json"
)

// Handle is the type-erased view of a namespace used by cache administration.
type Handle interface {
	Name() string
	Path() string
	Keys() []string
	Stats() Stats
	Value(key string) (any, bool)
	Delete(key string) error
	Clear() error
	Reload() error
}

// Store bundles the assembly and price namespaces of one cache directory.
type Store struct {
	dir        string
	Assemblies *Namespace[catalog.Assembly]
	Prices     *Namespace[catalog.PriceRecord]
}

// Open loads both namespaces from dir. The directory is created on first write.
func Open(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	return &Store{
		dir:        dir,
		Assemblies: OpenNamespace[catalog.Assembly](AssembliesNamespace, filepath.Join(dir, AssembliesFile), opts...),
		Prices:     OpenNamespace[catalog.PriceRecord](PricesNamespace, filepath.Join(dir, PricesFile), opts...),
	}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Namespaces returns every namespace in a fixed order.
func (s *Store) Namespaces() []Handle {
	return []Handle{s.Assemblies, s.Prices}
}

// Namespace looks up a namespace by name.
func (s *Store) Namespace(name string) (Handle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AssembliesNamespace, "minifigures":
		return s.Assemblies, nil
	case PricesNamespace:
		return s.Prices, nil
	default:
		return nil, fmt.Errorf("unknown cache namespace %q (want %s or %s)", name, AssembliesNamespace, PricesNamespace)
	}
}
