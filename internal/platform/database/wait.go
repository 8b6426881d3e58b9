package database

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitOptions controls the readiness probe. Attempts <= 0 retries until ctx ends.
type WaitOptions struct {
	Attempts    int
	Interval    time.Duration
	MaxInterval time.Duration
}

const pingTimeout = 3 * time.Second

// WaitForReady pings until the database answers, backing off exponentially
// between failed attempts.
func WaitForReady(ctx context.Context, p Pinger, opts WaitOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	maxInterval := opts.MaxInterval
	if maxInterval < interval {
		maxInterval = interval
	}

	for attempt := 1; ; attempt++ {
		err := ping(ctx, p)
		if err == nil {
			if attempt > 1 {
				log.WithField("attempts", attempt).Info("database available")
			}
			return nil
		}

		if opts.Attempts > 0 && attempt >= opts.Attempts {
			return fmt.Errorf("database unavailable after %d attempts: %w", attempt, err)
		}

		log.WithFields(log.Fields{
			"attempt": attempt,
			"retry":   interval.String(),
		}).Warnf("database unavailable: %v", err)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for database cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		interval *= 2
		if interval > maxInterval {
			interval = maxInterval
		}
	}
}

func ping(ctx context.Context, p Pinger) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.PingContext(pingCtx)
}
