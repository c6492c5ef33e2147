package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SuggestionJob recomputes stored friend suggestions for every active user.
type SuggestionJob interface {
	ComputeAll(ctx context.Context) error
}

// Scheduler runs the suggestion job once at start and then on every tick.
type Scheduler struct {
	job      SuggestionJob
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(job SuggestionJob, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.runSuggestionTask(ctx)
}

// Stop signals the task and waits for a running recomputation to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runSuggestionTask(ctx context.Context) {
	defer s.wg.Done()

	s.computeSuggestions(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.computeSuggestions(ctx)
		case <-s.stopChan:
			s.logger.Info("Suggestion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Suggestion task cancelled")
			return
		}
	}
}

func (s *Scheduler) computeSuggestions(ctx context.Context) {
	started := time.Now()
	s.logger.Info("Recomputing friend suggestions")

	if err := s.job.ComputeAll(ctx); err != nil {
		s.logger.Error("Failed to compute friend suggestions", zap.Error(err))
		return
	}

	s.logger.Info("Friend suggestions recomputed", zap.Duration("took", time.Since(started)))
}
