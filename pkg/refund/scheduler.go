package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// SweepResult summarises one retry sweep.
type SweepResult struct {
	Due       int
	Completed int
	Failed    int
	Cancelled int
	Errors    int
}

// RetryScheduler periodically re-submits failed refunds whose retry is due.
type RetryScheduler struct {
	scheduler gocron.Scheduler
	processor *Processor
	interval  time.Duration
	logger    logger.ILogger
}

func NewRetryScheduler(processor *Processor, interval time.Duration, log logger.ILogger) (*RetryScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &RetryScheduler{scheduler: s, processor: processor, interval: interval, logger: log}, nil
}

// Start registers the sweep job and starts the scheduler.
func (s *RetryScheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			defer cancel()
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("RETRY", "Retry sweep failed", map[string]interface{}{"error": err.Error()})
			}
		}),
		gocron.WithName("refund-retry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register retry sweep: %w", err)
	}
	s.scheduler.Start()
	s.logger.Info("RETRY", "Retry scheduler started", map[string]interface{}{"interval": s.interval.String()})
	return nil
}

func (s *RetryScheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("RETRY", "Failed to shutdown scheduler", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info("RETRY", "Retry scheduler stopped", nil)
}

// Sweep retries every due record once. A failing record does not stop the sweep.
func (s *RetryScheduler) Sweep(ctx context.Context) (*SweepResult, error) {
	return Sweep(ctx, s.processor, s.logger)
}

// Sweep is the scheduler-independent body of a retry run, shared with the operator CLI.
func Sweep(ctx context.Context, p *Processor, log logger.ILogger) (*SweepResult, error) {
	due, err := p.RetryDue(ctx)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Due: len(due)}
	for _, r := range due {
		if !r.LastFailureRetryable {
			continue
		}
		updated, err := p.Retry(ctx, r.ID, entity.SystemActor)

		var gwErr *GatewayError
		switch {
		case err == nil:
			res.Completed++
		case errors.As(err, &gwErr) && updated != nil:
			if updated.Status == entity.RefundStatusCancelled {
				res.Cancelled++
			} else {
				res.Failed++
			}
		default:
			res.Errors++
			log.Warn("RETRY", "Retry attempt errored", map[string]interface{}{
				"refund_id": r.ID.String(),
				"error":     err.Error(),
			})
		}
	}

	if res.Due > 0 {
		log.Info("RETRY", "Retry sweep finished", map[string]interface{}{
			"due":       res.Due,
			"completed": res.Completed,
			"failed":    res.Failed,
			"cancelled": res.Cancelled,
			"errors":    res.Errors,
		})
	}
	return res, nil
}
