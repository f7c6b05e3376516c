package service

import (
	"context"
	"sync"
	"time"

	"github.com/zlagoda/zlagoda-backend/pkg/logger"
)

// Expirer is the part of BatchService the scheduler drives.
type Expirer interface {
	ExpireBatches(ctx context.Context) (*ExpiryReport, error)
}

// ExpiryScheduler runs ExpireBatches periodically.
type ExpiryScheduler struct {
	expirer  Expirer
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(expirer Expirer, interval time.Duration, log *logger.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		expirer:  expirer,
		interval: interval,
		logger:   log.WithComponent("expiry-scheduler"),
	}
}

// Start starts the scheduler in a background goroutine. The first run happens
// immediately.
func (s *ExpiryScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("expiry scheduler started")

		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("expiry scheduler stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine and waits for an in-flight run to finish.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *ExpiryScheduler) runOnce(ctx context.Context) {
	start := time.Now()

	report, err := s.expirer.ExpireBatches(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry run failed")
	}
	if report == nil {
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("expired", report.Expired).
		Int("faults", len(report.Faults)).
		Msg("expiry run completed")
}
