// Package scheduler runs the periodic background jobs, coordinated across
// instances through a shared lock collection.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clearslate/defender-api/assignment"
	"github.com/clearslate/defender-api/databases"
)

const consentSweepLock = "consent_expiry_sweep"

// Scheduler owns the cron instance and the jobs it drives.
type Scheduler struct {
	cron        *cron.Cron
	Assignments *assignment.Service
	LockDB      databases.SweepLockDatabase
	instanceID  string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(assignments *assignment.Service, lockDB databases.SweepLockDatabase) *Scheduler {
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		Assignments: assignments,
		LockDB:      lockDB,
		instanceID:  instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep expired consent grants every 10 minutes.
	_, err := s.cron.AddFunc("*/10 * * * *", s.sweepExpiredConsents)
	if err != nil {
		zap.S().Errorw("failed to register consent sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// sweepExpiredConsents expires stale consent grants under a distributed lock
// so only one instance runs the sweep at a time.
func (s *Scheduler) sweepExpiredConsents() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, consentSweepLock, s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire consent sweep lock", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("consent sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, consentSweepLock, s.instanceID)

	expired, err := s.Assignments.ExpireOldConsents(ctx)
	if err != nil {
		zap.S().Errorw("consent sweep failed", "instance", s.instanceID, "error", err)
		return
	}
	if expired > 0 {
		zap.S().Infow("consent sweep expired stale grants", "instance", s.instanceID, "count", expired)
	}
}
