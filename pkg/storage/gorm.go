// Package storage provides storage implementations for the squeuelite packages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schorsch3000/squeuelite/pkg/core"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying *gorm.DB.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage talks to SQLite.
func (s *GormStorage) IsSQLite() bool {
	return s.db != nil && s.db.Dialector.Name() == "sqlite"
}

// Close closes the underlying connection pool.
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Job{})
}

// Insert adds a job to the table and fills in its generated ID.
func (s *GormStorage) Insert(ctx context.Context, job *core.Job) error {
	if job.Status == "" {
		job.Status = core.StatusReady
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("squeuelite: insert job: %w", err)
	}
	return nil
}

// Claim reconciles stalled and exhausted rows, then locks the oldest Ready
// job matching the queue filter. All of it happens in one transaction so no
// other claimer can observe the intermediate state.
//
// On SQLite the transaction is serialized by BEGIN IMMEDIATE (see SQLiteDSN).
// Elsewhere the candidate row is selected FOR UPDATE SKIP LOCKED and the
// status guard on the UPDATE rejects a row another claimer already took.
func (s *GormStorage) Claim(ctx context.Context, req core.ClaimRequest) (*core.Job, core.SweepResult, error) {
	var claimed *core.Job
	var swept core.SweepResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		swept, err = reconcile(tx, req.StallCutoff, req.MaxRetries)
		if err != nil {
			return err
		}

		query := tx.Where("status = ?", core.StatusReady)
		if len(req.Queues) > 0 {
			query = query.Where("queue_name IN ?", req.Queues)
		}
		if !s.IsSQLite() {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var job core.Job
		if err := query.Order("created_at ASC, job_id ASC").First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Model(&core.Job{}).
			Where("job_id = ? AND status = ?", job.ID, core.StatusReady).
			Updates(map[string]any{
				"status":    core.StatusLocked,
				"locked_at": req.Now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		lockedAt := req.Now
		job.Status = core.StatusLocked
		job.LockedAt = &lockedAt
		claimed = &job
		return nil
	})

	if err != nil {
		return nil, core.SweepResult{}, fmt.Errorf("squeuelite: claim: %w", err)
	}
	return claimed, swept, nil
}

// Heartbeat renews the lock on a Locked job. It reports false when the job
// is not (or no longer) Locked.
func (s *GormStorage) Heartbeat(ctx context.Context, jobID int64, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("job_id = ? AND status = ?", jobID, core.StatusLocked).
		Update("locked_at", now)
	if result.Error != nil {
		return false, fmt.Errorf("squeuelite: heartbeat: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Complete stores the output and marks the job Done regardless of its
// current status.
func (s *GormStorage) Complete(ctx context.Context, jobID int64, output []byte) error {
	err := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{
			"job_output": output,
			"locked_at":  nil,
			"status":     core.StatusDone,
		}).Error
	if err != nil {
		return fmt.Errorf("squeuelite: complete: %w", err)
	}
	return nil
}

// Delete removes the job row. Deleting a missing job is not an error.
func (s *GormStorage) Delete(ctx context.Context, jobID int64) error {
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Delete(&core.Job{}).Error
	if err != nil {
		return fmt.Errorf("squeuelite: delete: %w", err)
	}
	return nil
}

// Purge deletes Done and Failed rows created before their cutoffs.
func (s *GormStorage) Purge(ctx context.Context, doneCutoff, failedCutoff time.Time) (core.SweepResult, error) {
	var res core.SweepResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = purge(tx, doneCutoff, failedCutoff)
		return err
	})
	if err != nil {
		return core.SweepResult{}, fmt.Errorf("squeuelite: purge: %w", err)
	}
	return res, nil
}

// Sweep runs retention, stall reclaim and retry promotion in one transaction.
func (s *GormStorage) Sweep(ctx context.Context, req core.SweepRequest) (core.SweepResult, error) {
	var res core.SweepResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purged, err := purge(tx, req.DoneCutoff, req.FailedCutoff)
		if err != nil {
			return err
		}
		reconciled, err := reconcile(tx, req.StallCutoff, req.MaxRetries)
		if err != nil {
			return err
		}
		res = purged
		res.Add(reconciled)
		return nil
	})
	if err != nil {
		return core.SweepResult{}, fmt.Errorf("squeuelite: sweep: %w", err)
	}
	return res, nil
}

// purge deletes expired Done and Failed rows. Retention counts from created_at.
func purge(tx *gorm.DB, doneCutoff, failedCutoff time.Time) (core.SweepResult, error) {
	var res core.SweepResult

	done := tx.Where("status = ? AND created_at < ?", core.StatusDone, doneCutoff).Delete(&core.Job{})
	if done.Error != nil {
		return res, done.Error
	}
	res.DonePurged = done.RowsAffected

	failed := tx.Where("status = ? AND created_at < ?", core.StatusFailed, failedCutoff).Delete(&core.Job{})
	if failed.Error != nil {
		return res, failed.Error
	}
	res.FailedPurged = failed.RowsAffected
	return res, nil
}

// reconcile returns stalled Locked rows to Ready, bumping retry_count, and
// then fails every row whose retry_count reached maxRetries.
func reconcile(tx *gorm.DB, stallCutoff time.Time, maxRetries int) (core.SweepResult, error) {
	var res core.SweepResult

	reclaimed := tx.Model(&core.Job{}).
		Where("status = ? AND locked_at < ?", core.StatusLocked, stallCutoff).
		Updates(map[string]any{
			"status":      core.StatusReady,
			"locked_at":   nil,
			"retry_count": gorm.Expr("retry_count + 1"),
		})
	if reclaimed.Error != nil {
		return res, reclaimed.Error
	}
	res.Reclaimed = reclaimed.RowsAffected

	failed := tx.Model(&core.Job{}).
		Where("retry_count >= ? AND status <> ?", maxRetries, core.StatusFailed).
		Updates(map[string]any{
			"status":     core.StatusFailed,
			"locked_at":  nil,
			"job_output": nil,
		})
	if failed.Error != nil {
		return res, failed.Error
	}
	res.Failed = failed.RowsAffected
	return res, nil
}

// GetJob retrieves a job by ID. It returns nil, nil when the job does not exist.
func (s *GormStorage) GetJob(ctx context.Context, jobID int64) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("squeuelite: get job: %w", err)
	}
	return &job, nil
}

// QueueCounts returns the number of Ready jobs per queue name.
func (s *GormStorage) QueueCounts(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Queue string
		Count int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Select("queue_name AS queue, COUNT(*) AS count").
		Where("status = ?", core.StatusReady).
		Group("queue_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("squeuelite: queue counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Queue] = r.Count
	}
	return counts, nil
}

// CountByStatus returns the number of jobs in each lifecycle state.
func (s *GormStorage) CountByStatus(ctx context.Context) (map[core.JobStatus]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("squeuelite: count by status: %w", err)
	}

	counts := make(map[core.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[core.JobStatus(r.Status)] = r.Count
	}
	return counts, nil
}

// ListJobs returns up to limit jobs in creation order. An empty status
// lists jobs in every state.
func (s *GormStorage) ListJobs(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error) {
	var jobList []*core.Job
	query := s.db.WithContext(ctx).Order("created_at ASC, job_id ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobList).Error; err != nil {
		return nil, fmt.Errorf("squeuelite: list jobs: %w", err)
	}
	return jobList, nil
}
