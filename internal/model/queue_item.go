package model

import (
	"time"
)

type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueFailed     QueueStatus = "failed"
)

// QueueItem is one unit of processing work for a submission. Items are never
// deleted; completed and failed rows stay behind as an audit trail. A
// resubmission before the deadline creates a new item for the same
// submission and the eventual grade overwrites the old one.
//
// video_url and assignment_title are denormalized from the submission so a
// retry does not depend on re-reading it.
type QueueItem struct {
	ID                  uint        `gorm:"primarykey" json:"id"`
	SubmissionID        string      `json:"submission_id" gorm:"type:uuid;not null;index"`
	Status              QueueStatus `json:"status" gorm:"default:'pending';index"`
	Attempts            int         `json:"attempts" gorm:"default:0"`
	MaxAttempts         int         `json:"max_attempts" gorm:"default:3"`
	Priority            int         `json:"priority" gorm:"default:0;index"`
	VideoURL            string      `json:"video_url" gorm:"type:text"`
	AssignmentTitle     string      `json:"assignment_title"`
	ProcessingStartedAt *time.Time  `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
	ErrorMessage        *string     `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}
