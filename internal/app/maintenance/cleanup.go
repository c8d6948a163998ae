package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/resumex/pkg/logger"
	"github.com/charlesng35/resumex/pkg/metrics"
)

const defaultTokenSpec = "@hourly"

// TokenPurger clears verification codes and reset tokens that expired before now.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (verification int64, reset int64, err error)
}

// Job is a named background task run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Cleaner coordinates background maintenance tasks such as nulling expired
// verification and reset tokens.
type Cleaner struct {
	tokens   TokenPurger
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	timeout  time.Duration
	schedule string
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

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}


// NewCleaner constructs a Cleaner. A nil purger skips the token job.
func NewCleaner(tokens TokenPurger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:   tokens,
		now:      time.Now,
		timeout:  time.Minute,
		schedule: defaultTokenSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Jobs lists the registered jobs in execution order.
func (c *Cleaner) Jobs() []Job {
	if c.tokens == nil {
		return nil
	}
	return []Job{{Name: "tokens", Schedule: c.schedule, Run: c.purgeTokens}}
}

// Start registers every job with the cron scheduler and launches it when at least one job exists.
func (c *Cleaner) Start() error {
	jobs := c.Jobs()
	if len(jobs) == 0 {
		return nil
	}

	for _, job := range jobs {
		job := job
		if _, err := c.cron.AddFunc(job.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			if err := job.Run(ctx); err != nil {
				c.log.Warn("maintenance job failed", zap.String("job", job.Name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", job.Name, err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every job sequentially and combines their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, job := range c.Jobs() {
		if err := job.Run(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name, err))
		}
	}
	return errs
}

func (c *Cleaner) purgeTokens(ctx context.Context) error {
	if c.tokens == nil {
		return errors.New("token purger is not configured")
	}

	verification, reset, err := c.tokens.PurgeExpiredTokens(ctx, c.now())
	metrics.TokensPurged.WithLabelValues("verification").Add(float64(verification))
	metrics.TokensPurged.WithLabelValues("reset").Add(float64(reset))
	if err != nil {
		return err
	}

	if verification > 0 || reset > 0 {
		c.log.Info("expired tokens purged",
			zap.Int64("verification", verification),
			zap.Int64("reset", reset))
	}
	return nil
}
