package model

import (
	"time"

	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionNotStarted SubmissionStatus = "not_started"
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the student-facing record. The pipeline only touches status,
// transcript, error_message and the processing timestamps; everything else is
// owned by the assignment subsystem.
type Submission struct {
	ID                    string           `gorm:"primarykey;type:uuid" json:"id"`
	StudentName           string           `json:"student_name,omitempty"`
	AssignmentTitle       string           `json:"assignment_title" gorm:"not null"`
	VideoURL              string           `json:"video_url" gorm:"type:text;not null"`
	Status                SubmissionStatus `json:"status" gorm:"default:'not_started';index"`
	Transcript            string           `json:"transcript,omitempty" gorm:"type:text"`
	ErrorMessage          *string          `json:"error_message,omitempty" gorm:"type:text"`
	ProcessingStartedAt   *time.Time       `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time       `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`
}
