package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobFunc is a periodic job body.
type JobFunc func(ctx context.Context) error

// Scheduler runs periodic jobs. Each run first claims a row in
// scheduler_locks, so with several replicas only one executes a given run.
type Scheduler struct {
	db    *gorm.DB
	cron  *cron.Cron
	owner string
	now   func() time.Time
}

func NewScheduler(db *gorm.DB) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		db:    db,
		cron:  cron.New(),
		owner: fmt.Sprintf("%s/%s", host, uuid.NewString()[:8]),
		now:   time.Now,
	}
}

// Add registers fn under name on the cron spec. hold bounds how long the
// lock is kept if the instance dies mid-run.
func (s *Scheduler) Add(spec, name string, hold time.Duration, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.Run(context.Background(), name, hold, fn)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	logger.Info().Str("job", name).Str("spec", spec).Msg("[Scheduler] Job registered")
	return nil
}

// Run executes fn once if the lock for name can be claimed.
func (s *Scheduler) Run(ctx context.Context, name string, hold time.Duration, fn JobFunc) {
	ok, err := s.acquire(ctx, name, hold)
	if err != nil {
		logger.Error().Err(err).Str("job", name).Msg("[Scheduler] Lock failed")
		return
	}
	if !ok {
		logger.Debug().Str("job", name).Msg("[Scheduler] Held by another instance")
		return
	}
	defer s.release(ctx, name)

	start := s.now()
	if err := fn(ctx); err != nil {
		logger.Error().Err(err).Str("job", name).Msg("[Scheduler] Job failed")
		return
	}
	logger.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("[Scheduler] Job done")
}

func (s *Scheduler) acquire(ctx context.Context, name string, hold time.Duration) (bool, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	// take over an expired lock
	result := db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND expires_at <= ?", name, now).
		Updates(map[string]interface{}{"locked_by": s.owner, "locked_at": now, "expires_at": now.Add(hold)})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	lock := models.SchedulerLock{LockName: name, LockedBy: s.owner, LockedAt: now, ExpiresAt: now.Add(hold)}
	result = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *Scheduler) release(ctx context.Context, name string) {
	err := s.db.WithContext(ctx).Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND locked_by = ?", name, s.owner).
		Update("expires_at", s.now()).Error
	if err != nil {
		logger.Warn().Err(err).Str("job", name).Msg("[Scheduler] Release failed")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("[Scheduler] Started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("[Scheduler] Stopped")
}
