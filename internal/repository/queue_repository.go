package repository

import (
	"time"

	"github.com/qvhoang/Peregrine/internal/model"
	"gorm.io/gorm"
)

type QueueRepository interface {
	Create(item *model.QueueItem) error
	FindByID(id uint) (*model.QueueItem, error)
	FindBySubmissionID(submissionID string) ([]model.QueueItem, error)
	CountProcessing() (int64, error)
	ResetStale(leaseTimeout time.Duration) (int64, error)
	ClaimPending(limit int) ([]model.QueueItem, error)
	MarkCompleted(id uint) error
	RecordFailure(id uint, attempts int, errorMessage string, terminal bool) error
}

type queueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Create(item *model.QueueItem) error {
	return r.db.Create(item).Error
}

func (r *queueRepository) FindByID(id uint) (*model.QueueItem, error) {
	var item model.QueueItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) FindBySubmissionID(submissionID string) ([]model.QueueItem, error) {
	var items []model.QueueItem
	if err := r.db.Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepository) CountProcessing() (int64, error) {
	var count int64
	err := r.db.Model(&model.QueueItem{}).Where("status = ?", model.QueueProcessing).Count(&count).Error
	return count, err
}

// ResetStale returns items whose processing lease expired back to pending.
// Attempts are left untouched; a stale lease usually means the worker died,
// not that the item itself failed.
func (r *queueRepository) ResetStale(leaseTimeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-leaseTimeout)
	result := r.db.Model(&model.QueueItem{}).
		Where("status = ? AND processing_started_at < ?", model.QueueProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":                model.QueuePending,
			"processing_started_at": nil,
			"error_message":         "Reset: processing lease expired",
		})
	return result.RowsAffected, result.Error
}

// ClaimPending atomically flips up to limit pending items to processing and
// returns them. SKIP LOCKED keeps concurrent passes from claiming the same
// rows; the status guard in the outer UPDATE keeps the flip conditional.
func (r *queueRepository) ClaimPending(limit int) ([]model.QueueItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	var items []model.QueueItem
	err := r.db.Raw(`
		UPDATE queue_items
		SET status = ?, processing_started_at = NOW(), updated_at = NOW()
		WHERE id IN (
			SELECT id FROM queue_items
			WHERE status = ?
			ORDER BY priority DESC, created_at ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		) AND status = ?
		RETURNING *`,
		model.QueueProcessing, model.QueuePending, limit, model.QueuePending,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepository) MarkCompleted(id uint) error {
	now := time.Now()
	return r.db.Model(&model.QueueItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                  model.QueueCompleted,
		"completed_at": now,
		"error_message":           nil,
	}).Error
}

// RecordFailure requeues the item for another attempt, or marks it failed
// for good when terminal is set.
func (r *queueRepository) RecordFailure(id uint, attempts int, errorMessage string, terminal bool) error {
	updates := map[string]interface{}{
		"attempts":              attempts,
		"error_message":         errorMessage,
		"processing_started_at": nil,
	}
	if terminal {
		updates["status"] = model.QueueFailed
		updates["completed_at"] = time.Now()
	} else {
		updates["status"] = model.QueuePending
	}
	return r.db.Model(&model.QueueItem{}).Where("id = ?", id).Updates(updates).Error
}
