// Package cache memoizes usage profiles keyed by a fingerprint of their input.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jgoulah/gridprofile/internal/analysis"
	"github.com/jgoulah/gridprofile/pkg/models"
)

const (
	DefaultTTL          = 7 * 24 * time.Hour
	DefaultStoreTimeout = 250 * time.Millisecond
)

// Lookup results reported to a Recorder
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultBypass = "bypass"
)

// Recorder receives cache and analysis measurements
type Recorder interface {
	CacheLookup(result string)
	StoreError(op string)
	ObserveAnalysis(profileType models.ProfileType, elapsed time.Duration)
}

// Options tunes an Analyzer. Zero values select the defaults.
type Options struct {
	TTL          time.Duration
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Metrics      Recorder
}

// Analyzer runs the analysis pipeline behind a Store. The store is an
// optimization only: its failures are logged and the profile is computed
// directly.
type Analyzer struct {
	store        Store
	cfg          analysis.Config
	ttl          time.Duration
	storeTimeout time.Duration
	logger       *slog.Logger
	metrics      Recorder
	group        singleflight.Group
}

// NewAnalyzer creates an Analyzer. store may be nil, in which case every
// request is computed.
func NewAnalyzer(store Store, cfg analysis.Config, opts Options) *Analyzer {
	a := &Analyzer{
		store:        store,
		cfg:          cfg,
		ttl:          opts.TTL,
		storeTimeout: opts.StoreTimeout,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if a.ttl <= 0 {
		a.ttl = DefaultTTL
	}
	if a.storeTimeout <= 0 {
		a.storeTimeout = DefaultStoreTimeout
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Key returns the cache key a request is stored under
func (a *Analyzer) Key(req analysis.Request) string {
	return Key(req.UserID, Fingerprint(a.cfg, req.Records, req.Window))
}

// Analyze returns the cached profile for req, computing and storing it on a
// miss. The returned profile may be shared with concurrent callers and must
// not be modified.
func (a *Analyzer) Analyze(ctx context.Context, req analysis.Request) (*models.UsageProfile, error) {
	if a.store == nil {
		a.recordLookup(ResultBypass)
		return a.compute(req)
	}

	key := a.Key(req)
	logger := a.logger.With("user_id", req.UserID, "cache_key", key)

	if profile, ok := a.lookup(ctx, logger, key); ok {
		a.recordLookup(ResultHit)
		logger.Debug("profile cache hit")
		return profile, nil
	}
	a.recordLookup(ResultMiss)
	logger.Debug("profile cache miss")

	v, err, shared := a.group.Do(key, func() (any, error) {
		profile, err := a.compute(req)
		if err != nil {
			return nil, err
		}
		a.save(ctx, logger, key, profile)
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("profile computation shared with a concurrent request")
	}
	return v.(*models.UsageProfile), nil
}

// Invalidate removes the cached profile for req
func (a *Analyzer) Invalidate(ctx context.Context, req analysis.Request) error {
	if a.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	key := a.Key(req)
	if err := a.store.Delete(ctx, key); err != nil {
		a.recordStoreError("delete")
		return fmt.Errorf("deleting cached profile %s: %w", key, err)
	}
	a.logger.Info("profile cache entry invalidated", "user_id", req.UserID, "cache_key", key)
	return nil
}

func (a *Analyzer) compute(req analysis.Request) (*models.UsageProfile, error) {
	start := time.Now()
	profile, err := analysis.Analyze(a.cfg, req)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.ObserveAnalysis(profile.ProfileType, time.Since(start))
	}
	return profile, nil
}

func (a *Analyzer) lookup(ctx context.Context, logger *slog.Logger, key string) (*models.UsageProfile, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	data, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.recordStoreError("get")
		logger.Warn("profile cache read failed; computing directly", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var profile models.UsageProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		a.recordStoreError("decode")
		logger.Warn("discarding undecodable cached profile", "error", err)
		return nil, false
	}
	return &profile, true
}

func (a *Analyzer) save(ctx context.Context, logger *slog.Logger, key string, profile *models.UsageProfile) {
	data, err := json.Marshal(profile)
	if err != nil {
		a.recordStoreError("encode")
		logger.Warn("encoding profile for cache", "error", err)
		return
	}

	// The caller may already be gone; the write-back still gets its own budget
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.storeTimeout)
	defer cancel()

	if err := a.store.Set(ctx, key, data, a.ttl); err != nil {
		a.recordStoreError("set")
		logger.Warn("profile cache write failed", "error", err)
	}
}

func (a *Analyzer) recordLookup(result string) {
	if a.metrics != nil {
		a.metrics.CacheLookup(result)
	}
}

func (a *Analyzer) recordStoreError(op string) {
	if a.metrics != nil {
		a.metrics.StoreError(op)
	}
}
