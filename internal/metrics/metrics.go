// Package metrics exposes Prometheus counters for cache and matching activity.
//
// A Recorder owns its own registry so tests and parallel runs never collide
// on the process-wide default registerer.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects figfinder metrics.
type Recorder struct {
	registry *prometheus.Registry

	cacheLookups    *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	cacheEntries    *prometheus.GaugeVec
	matchReports    *prometheus.CounterVec
	omissions       prometheus.Counter
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figfinder_cache_lookups_total",
				Help: "Cache lookups by namespace and result",
			},
			[]string{"namespace", "result"}, // hit, miss, refresh
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figfinder_cache_fetch_failures_total",
				Help: "Fetch functions that returned an error on a cache miss",
			},
			[]string{"namespace"},
		),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figfinder_cache_persist_failures_total",
				Help: "Namespace writes that failed to reach disk",
			},
			[]string{"namespace"},
		),
		cacheEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "figfinder_cache_entries",
				Help: "Entries currently held per namespace",
			},
			[]string{"namespace"},
		),
		matchReports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figfinder_match_reports_total",
				Help: "Match reports produced by outcome",
			},
			[]string{"outcome"}, // complete, incomplete
		),
		omissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "figfinder_match_omissions_total",
			Help: "Assemblies skipped during analysis because no definition was available",
		}),
	}
	r.registry.MustRegister(r.cacheLookups, r.fetchFailures, r.persistFailures, r.cacheEntries, r.matchReports, r.omissions)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveLookup(namespace, result string) {
	r.cacheLookups.WithLabelValues(namespace, result).Inc()
}

func (r *Recorder) ObserveFetchFailure(namespace string) {
	r.fetchFailures.WithLabelValues(namespace).Inc()
}

func (r *Recorder) ObservePersistFailure(namespace string) {
	r.persistFailures.WithLabelValues(namespace).Inc()
}

func (r *Recorder) ObserveEntries(namespace string, count int) {
	r.cacheEntries.WithLabelValues(namespace).Set(float64(count))
}

// ObserveMatches records one batch of match outcomes.
func (r *Recorder) ObserveMatches(complete, incomplete, omitted int) {
	r.matchReports.WithLabelValues("complete").Add(float64(complete))
	r.matchReports.WithLabelValues("incomplete").Add(float64(incomplete))
	r.omissions.Add(float64(omitted))
}

// WriteTextfile writes the current metrics in the text exposition format for
// node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
