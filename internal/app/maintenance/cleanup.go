package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/taskdesk/pkg/logger"
	"github.com/charlesng35/taskdesk/pkg/metrics"
)

const (
	defaultCacheSpec = "@hourly"

	jobCacheCleanup = "cache_cleanup"
)

// ExpiredPurger removes entries whose expiry is at or before now.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner coordinates background maintenance tasks. Today that is purging expired
// rows from the database-backed cache, which unlike Redis never evicts on its own.
type Cleaner struct {
	purgers []ExpiredPurger
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger

	cacheSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache cleanup.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. Nil purgers are ignored; with none left Start is a no-op.
func NewCleaner(purgers []ExpiredPurger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		now:           time.Now,
		cacheSchedule: defaultCacheSpec,
		log:           logger.WithModule("maintenance"),
	}
	for _, p := range purgers {
		if p != nil {
			cleaner.purgers = append(cleaner.purgers, p)
		}
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if len(c.purgers) == 0 {
		return nil
	}

	if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cache cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info("maintenance scheduled", zap.String("cache_cleanup", c.cacheSchedule))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce purges every configured store, aggregating failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(c.purgers) == 0 {
		return nil
	}

	var (
		errs  error
		total int64
	)
	now := c.now()
	for _, p := range c.purgers {
		removed, err := p.PurgeExpired(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		total += removed
	}

	result := "success"
	if errs != nil {
		result = "failure"
	}
	metrics.MaintenanceRuns.WithLabelValues(jobCacheCleanup, result).Inc()

	if total > 0 {
		c.log.Debug("purged expired cache entries", zap.Int64("removed", total))
	}
	return errs
}

// ErrNoPurgers is returned by Validate when the cleaner has nothing to do.
var ErrNoPurgers = errors.New("maintenance: no purgers configured")

// Validate checks the schedule parses and that at least one purger is set.
func (c *Cleaner) Validate() error {
	if len(c.purgers) == 0 {
		return ErrNoPurgers
	}
	_, err := cron.ParseStandard(c.cacheSchedule)
	return err
}
