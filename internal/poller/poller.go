// Package poller drives the controller's short and long polls on a cron
// scheduler.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"go.uber.org/zap"
	"gopkg.in/robfig/cron.v2"
)

// Pollable is polled on the short and long intervals
type Pollable interface {
	ShortPoll(ctx context.Context) error
	LongPoll(ctx context.Context) error
}

// Poller schedules the polls.  A short poll that is still running when the
// next one is due causes that tick to be skipped.
type Poller struct {
	target Pollable
	logger *zap.SugaredLogger
	short  time.Duration
	long   time.Duration

	cron    *cron.Cron
	polling atomic.Bool
	skipped atomic.Int64
}

// New creates a poller for target using the configured intervals
func New(target Pollable, cfg config.PollingData, logger *zap.SugaredLogger) (*Poller, error) {
	short, long, err := cfg.Intervals()
	if err != nil {
		return nil, err
	}
	if short < time.Second || long < time.Second {
		return nil, fmt.Errorf("poll intervals must be at least one second (short %v, long %v)", short, long)
	}

	return &Poller{
		target: target,
		logger: logger,
		short:  short,
		long:   long,
		cron:   cron.New(),
	}, nil
}

// Run schedules both polls and blocks until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.cron.AddFunc(every(p.short), func() { p.shortPoll(ctx) }); err != nil {
		return fmt.Errorf("could not schedule short poll: %w", err)
	}
	if _, err := p.cron.AddFunc(every(p.long), func() { p.longPoll(ctx) }); err != nil {
		return fmt.Errorf("could not schedule long poll: %w", err)
	}

	p.logger.Infof("polling every %v (short) and %v (long)", p.short, p.long)
	p.cron.Start()
	<-ctx.Done()
	p.cron.Stop()
	return nil
}

// Skipped returns the number of short polls skipped because the previous one
// was still running
func (p *Poller) Skipped() int64 {
	return p.skipped.Load()
}

func (p *Poller) shortPoll(ctx context.Context) {
	if !p.polling.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.logger.Warn("previous poll still running, skipping this one")
		return
	}
	defer p.polling.Store(false)

	if err := p.target.ShortPoll(ctx); err != nil {
		p.logger.Errorf("short poll failed: %v", err)
	}
}

func (p *Poller) longPoll(ctx context.Context) {
	if err := p.target.LongPoll(ctx); err != nil {
		p.logger.Errorf("long poll failed: %v", err)
	}
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
