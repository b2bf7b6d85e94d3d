package repository

import (
	"errors"

	"github.com/qvhoang/Peregrine/internal/model"
	"gorm.io/gorm"
)

type GradeRepository interface {
	UpsertWithFeedback(grade *model.Grade, feedback *model.Feedback) error
	FindBySubmissionID(submissionID string) (*model.Grade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

// UpsertWithFeedback writes the grade and its feedback in one transaction so
// a reader never observes a grade without feedback or vice versa. An existing
// grade for the same submission is overwritten in place.
func (r *gradeRepository) UpsertWithFeedback(grade *model.Grade, feedback *model.Feedback) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Grade
		err := tx.Where("submission_id = ?", grade.SubmissionID).First(&existing).Error
		switch {
		case err == nil:
			grade.ID = existing.ID
			grade.CreatedAt = existing.CreatedAt
			if err := tx.Save(grade).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(grade).Error; err != nil {
				return err
			}
		default:
			return err
		}

		feedback.GradeID = grade.ID
		var existingFeedback model.Feedback
		err = tx.Where("grade_id = ?", grade.ID).First(&existingFeedback).Error
		switch {
		case err == nil:
			feedback.ID = existingFeedback.ID
			feedback.CreatedAt = existingFeedback.CreatedAt
			return tx.Save(feedback).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(feedback).Error
		default:
			return err
		}
	})
}

func (r *gradeRepository) FindBySubmissionID(submissionID string) (*model.Grade, error) {
	var grade model.Grade
	if err := r.db.Preload("Feedback").Where("submission_id = ?", submissionID).First(&grade).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}
