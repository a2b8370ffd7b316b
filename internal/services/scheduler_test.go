package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunClaimsLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	first := NewScheduler(db)
	second := NewScheduler(db)

	runs := 0
	job := func(context.Context) error { runs++; return nil }

	// second cannot run while first holds the lock
	blocking := func(ctx context.Context) error {
		runs++
		second.Run(ctx, "purge", time.Minute, job)
		return nil
	}
	first.Run(ctx, "purge", time.Minute, blocking)
	assert.Equal(t, 1, runs)

	// released after the run, so the next tick goes through
	second.Run(ctx, "purge", time.Minute, job)
	assert.Equal(t, 2, runs)

	var lock models.SchedulerLock
	require.NoError(t, db.First(&lock, "lock_name = ?", "purge").Error)
	assert.Equal(t, second.owner, lock.LockedBy)
}

func TestScheduler_TakesOverExpiredLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stale := models.SchedulerLock{
		LockName:  "cleanup",
		LockedBy:  "dead-host/1234",
		LockedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&stale).Error)

	s := NewScheduler(db)
	ran := false
	s.Run(ctx, "cleanup", time.Minute, func(context.Context) error { ran = true; return nil })
	assert.True(t, ran)
}

func TestScheduler_LiveLockBlocks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.SchedulerLock{
		LockName:  "cleanup",
		LockedBy:  "busy-host/1",
		LockedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	ran := false
	NewScheduler(db).Run(ctx, "cleanup", time.Minute, func(context.Context) error { ran = true; return nil })
	assert.False(t, ran)
}

func TestScheduler_FailedJobReleasesLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := NewScheduler(db)

	s.Run(ctx, "flaky", time.Hour, func(context.Context) error { return errors.New("boom") })

	ran := false
	s.Run(ctx, "flaky", time.Hour, func(context.Context) error { ran = true; return nil })
	assert.True(t, ran)
}

func TestScheduler_AddRejectsBadSpec(t *testing.T) {
	s := NewScheduler(newTestDB(t))
	assert.Error(t, s.Add("not a spec", "bad", time.Minute, func(context.Context) error { return nil }))
	assert.NoError(t, s.Add("@hourly", "ok", time.Minute, func(context.Context) error { return nil }))
}

func TestRetryService_ProcessUnindexed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner, company := createCompany(t, db)
	jobs := NewJobService(db, nil, nil)

	pending := newJob(t, jobs, company.ID, owner.ID, true)
	indexed := newJob(t, jobs, company.ID, owner.ID, true)
	newJob(t, jobs, company.ID, owner.ID, false)
	require.NoError(t, db.Model(indexed).UpdateColumn("embedding", models.Vector{1}).Error)
	_, profile := createProfessional(t, db)

	q := &recordingQueue{}
	n, err := NewRetryService(db, q, &fakeEmbedder{}).ProcessUnindexed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []IndexTask{
		{Kind: IndexKindJob, ID: pending.ID},
		{Kind: IndexKindProfile, ID: profile.ID},
	}, q.indexTasks())
}

func TestRetryService_NoEmbedder(t *testing.T) {
	q := &recordingQueue{}
	n, err := NewRetryService(newTestDB(t), q, nil).ProcessUnindexed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, q.tasks)
}
