// Package metrics exposes Prometheus counters and histograms for profile
// analysis and the profile cache.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jgoulah/gridprofile/pkg/models"
)

const namespace = "gridprofile"

// Collector records analysis metrics on a private registry
type Collector struct {
	registry         *prometheus.Registry
	cacheLookups     *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	profiles         *prometheus.CounterVec
}

// NewCollector constructs a collector with its metrics registered
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Profile cache lookups by result (hit, miss, bypass).",
	}, []string{"result"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "store_errors_total",
		Help:      "Profile cache store failures by operation.",
	}, []string{"op"})

	analysisDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time spent computing a usage profile.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"profile_type"})

	profiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "profiles_total",
		Help:      "Computed usage profiles by classification.",
	}, []string{"profile_type"})

	for _, c := range []prometheus.Collector{cacheLookups, storeErrors, analysisDuration, profiles} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return &Collector{
		registry:         registry,
		cacheLookups:     cacheLookups,
		storeErrors:      storeErrors,
		analysisDuration: analysisDuration,
		profiles:         profiles,
	}, nil
}

// CacheLookup counts one cache lookup
func (c *Collector) CacheLookup(result string) {
	c.cacheLookups.WithLabelValues(result).Inc()
}

// StoreError counts one failed store operation
func (c *Collector) StoreError(op string) {
	c.storeErrors.WithLabelValues(op).Inc()
}

// ObserveAnalysis records one computed profile
func (c *Collector) ObserveAnalysis(profileType models.ProfileType, elapsed time.Duration) {
	label := string(profileType)
	c.profiles.WithLabelValues(label).Inc()
	c.analysisDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// Gatherer returns the registry backing the collector
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by node_exporter's textfile collector
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
