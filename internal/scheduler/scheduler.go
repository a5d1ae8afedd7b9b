// Package scheduler manages periodic re-analysis of registered trade
// logs, so saved analyses stay current as new trades arrive.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReanalyzeFunc re-runs the walk-forward analysis for one block.
type ReanalyzeFunc func(ctx context.Context, blockID uuid.UUID) error

// Scheduler runs registered re-analysis jobs on cron expressions.
type Scheduler struct {
	cron       *cron.Cron
	logger     logrus.FieldLogger
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		logger:     logger,
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 30 * time.Minute,
	}
}

// ScheduleReanalysis registers a block for periodic re-analysis
func (s *Scheduler) ScheduleReanalysis(cronExpression string, blockID uuid.UUID, run ReanalyzeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.logger.WithField("block_id", blockID).Info("Starting scheduled re-analysis")
		if err := run(ctx, blockID); err != nil {
			s.logger.WithField("block_id", blockID).WithError(err).Error("Scheduled re-analysis failed")
			return
		}
		s.logger.WithField("block_id", blockID).Info("Scheduled re-analysis completed")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"block_id": blockID,
		"cron":     cronExpression,
	}).Info("Scheduled re-analysis job")
	return nil
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop halts job execution, waiting for in-flight jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
}

// JobCount returns the number of registered jobs
func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobIDs)
}
