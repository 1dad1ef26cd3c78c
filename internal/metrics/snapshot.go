// Package metrics keeps a periodically refreshed summary of the recipe store.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/repos"
)

const defaultInterval = 60 * time.Second

// Snapshot is a point-in-time summary. AverageRating is the mean joint score
// over every rating that sets at least one field.
type Snapshot struct {
	TotalRecipes     int64     `json:"total_recipes"`
	RatedRecipeCount int64     `json:"rated_recipe_count"`
	TotalRatings     int64     `json:"total_ratings"`
	AverageRating    float64   `json:"average_rating"`
	RefreshedAt      time.Time `json:"refreshed_at"`
}

// Source is the read side the snapshot is computed from.
type Source interface {
	Count(ctx context.Context, filter repos.CountFilter) (int64, error)
	CountRatings(ctx context.Context) (int64, error)
	AverageJointRating(ctx context.Context) (float64, error)
}

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithInterval sets how often the snapshot is recomputed.
func WithInterval(d time.Duration) Option {
	return func(s *Snapshotter) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRegisterer exports the snapshot as Prometheus gauges on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Snapshotter) {
		s.registerer = reg
	}
}

// Snapshotter owns the only shared mutable state of the service: the latest
// snapshot. Readers never block on a refresh in progress.
type Snapshotter struct {
	source     Source
	log        *logger.Logger
	interval   time.Duration
	registerer prometheus.Registerer
	gauges     *gauges

	mu      sync.RWMutex
	current Snapshot

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

type gauges struct {
	totalRecipes  prometheus.Gauge
	ratedRecipes  prometheus.Gauge
	totalRatings  prometheus.Gauge
	averageRating prometheus.Gauge
}

func newGauges() *gauges {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "familyrecipes",
			Name:      name,
			Help:      help,
		})
	}
	return &gauges{
		totalRecipes:  gauge("recipes_total", "Number of stored recipes."),
		ratedRecipes:  gauge("recipes_rated", "Number of recipes with at least one rating."),
		totalRatings:  gauge("ratings_total", "Number of stored ratings."),
		averageRating: gauge("rating_average", "Mean joint rating across all scored ratings."),
	}
}

func (g *gauges) collectors() []prometheus.Collector {
	return []prometheus.Collector{g.totalRecipes, g.ratedRecipes, g.totalRatings, g.averageRating}
}

func (g *gauges) set(s Snapshot) {
	g.totalRecipes.Set(float64(s.TotalRecipes))
	g.ratedRecipes.Set(float64(s.RatedRecipeCount))
	g.totalRatings.Set(float64(s.TotalRatings))
	g.averageRating.Set(s.AverageRating)
}

// NewSnapshotter creates a snapshotter. Nothing is computed until Refresh or
// Start is called.
func NewSnapshotter(source Source, log *logger.Logger, opts ...Option) (*Snapshotter, error) {
	s := &Snapshotter{
		source:   source,
		log:      log.With("component", "metrics"),
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registerer != nil {
		s.gauges = newGauges()
		for _, c := range s.gauges.collectors() {
			if err := s.registerer.Register(c); err != nil {
				return nil, fmt.Errorf("register snapshot gauge: %w", err)
			}
		}
	}
	return s, nil
}

// Current returns the latest successfully computed snapshot.
func (s *Snapshotter) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Interval reports the configured refresh period.
func (s *Snapshotter) Interval() time.Duration {
	return s.interval
}

// Refresh recomputes the snapshot. On failure the previous snapshot is kept.
func (s *Snapshotter) Refresh(ctx context.Context) error {
	var next Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.source.Count(gctx, repos.CountFilter{})
		next.TotalRecipes = n
		return err
	})
	g.Go(func() error {
		n, err := s.source.Count(gctx, repos.CountFilter{RatedOnly: true})
		next.RatedRecipeCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.source.CountRatings(gctx)
		next.TotalRatings = n
		return err
	})
	g.Go(func() error {
		avg, err := s.source.AverageJointRating(gctx)
		next.AverageRating = avg
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("metrics refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("refresh metrics: %w", err)
	}
	next.RefreshedAt = time.Now().UTC()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if s.gauges != nil {
		s.gauges.set(next)
	}
	s.log.Debug("metrics refreshed",
		"total_recipes", next.TotalRecipes,
		"rated_recipes", next.RatedRecipeCount,
		"total_ratings", next.TotalRatings,
		"average_rating", next.AverageRating,
	)
	return nil
}

// run refreshes once, then on every tick until ctx is cancelled.
func (s *Snapshotter) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("metrics snapshot started", "interval", s.interval.String())
	_ = s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("metrics snapshot stopped")
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Start runs the refresh loop in the background. Calling Start twice without
// Stop is a no-op.
func (s *Snapshotter) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.run(runCtx)
	}(s.done)
}

// Stop cancels the refresh loop and waits for it to exit.
func (s *Snapshotter) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}
