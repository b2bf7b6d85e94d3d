package repository

import (
	"time"

	"github.com/qvhoang/Peregrine/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(submission *model.Submission) error
	FindByID(id string) (*model.Submission, error)
	FindAll() ([]model.Submission, error)
	MarkProcessing(id string) error
	SetTranscript(id string, transcript string) error
	MarkCompleted(id string) error
	MarkFailed(id string, errorMessage string) error
	MarkPending(id string, errorMessage string) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(submission *model.Submission) error {
	return r.db.Create(submission).Error
}

func (r *submissionRepository) FindByID(id string) (*model.Submission, error) {
	var submission model.Submission
	if err := r.db.Where("id = ?", id).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindAll() ([]model.Submission, error) {
	var submissions []model.Submission
	if err := r.db.Order("created_at desc").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) MarkProcessing(id string) error {
	now := time.Now()
	return r.db.Model(&model.Submission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                model.SubmissionProcessing,
		"processing_started_at": now,
		"error_message":         nil,
	}).Error
}

func (r *submissionRepository) SetTranscript(id string, transcript string) error {
	return r.db.Model(&model.Submission{}).Where("id = ?", id).Update("transcript", transcript).Error
}

func (r *submissionRepository) MarkCompleted(id string) error {
	now := time.Now()
	return r.db.Model(&model.Submission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                  model.SubmissionCompleted,
		"processing_completed_at": now,
		"error_message":           nil,
	}).Error
}

func (r *submissionRepository) MarkFailed(id string, errorMessage string) error {
	now := time.Now()
	return r.db.Model(&model.Submission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                  model.SubmissionFailed,
		"processing_completed_at": now,
		"error_message":           errorMessage,
	}).Error
}

// MarkPending moves a submission back to pending after a retryable failure so
// the student keeps seeing it as queued rather than failed.
func (r *submissionRepository) MarkPending(id string, errorMessage string) error {
	return r.db.Model(&model.Submission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.SubmissionPending,
		"error_message": errorMessage,
	}).Error
}
