package worker

import (
	"context"
	"time"

	"github.com/autoreplyx/backend/internal/metrics"
	"github.com/autoreplyx/backend/internal/queue"
	"github.com/autoreplyx/backend/pkg/logger"
)

// Sweeper periodically drains the retry queue back onto the main queue's
// consumer end so retried events run before newly arriving ones. The
// dead-letter queue is deliberately left alone.
type Sweeper struct {
	queue    *queue.Queue
	interval time.Duration
	metrics  metrics.Collector
	log      *logger.Logger
}

func NewSweeper(q *queue.Queue, interval time.Duration, collector metrics.Collector, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		queue:    q,
		interval: interval,
		metrics:  collector,
		log:      log,
	}
}

// Run ticks until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("retry sweeper starting", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.log.Info("retry sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce drains the retry queue a single time
func (s *Sweeper) RunOnce(ctx context.Context) {
	moved, err := s.queue.DrainRetry(ctx)
	if err != nil {
		s.log.LogError(err, "retry sweep failed")
	}
	if moved > 0 {
		s.metrics.RecordSweep(moved)
		s.log.Info("retry queue drained", "moved", moved)
	}
}
