package cachestore

import (
	"log/slog"

	"figfinder/internal/logging"
)

// Lookup results reported to an Observer.
const (
	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupRefresh = "refresh"
)

// Observer receives cache activity. metrics.Recorder satisfies it.
type Observer interface {
	ObserveLookup(namespace, result string)
	ObserveFetchFailure(namespace string)
	ObservePersistFailure(namespace string)
	ObserveEntries(namespace string, count int)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string) {}
func (nopObserver) ObserveFetchFailure(string)   {}
func (nopObserver) ObservePersistFailure(string) {}
func (nopObserver) ObserveEntries(string, int)   {}

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures a Namespace or Store.
type Option func(*options)

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logging.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
