package model

import (
	"time"

	"gorm.io/gorm"
)

// Feedback carries the three student-facing feedback texts for a grade.
// Created and updated in the same transaction as its Grade, never alone.
type Feedback struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	GradeID             uint           `json:"grade_id" gorm:"not null;uniqueIndex"`
	ContentFeedback     string         `json:"content_feedback" gorm:"type:text"`
	FillerWordsFeedback string         `json:"filler_words_feedback" gorm:"type:text"`
	DeliveryFeedback    string         `json:"delivery_feedback" gorm:"type:text"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
