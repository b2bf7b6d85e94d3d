package dto

import "time"

type FeedbackResponse struct {
	ContentFeedback     string `json:"content_feedback"`
	FillerWordsFeedback string `json:"filler_words_feedback"`
	DeliveryFeedback    string `json:"delivery_feedback"`
}

type GradeResponse struct {
	TotalScore       int               `json:"total_score"`
	ContentScore     float64           `json:"content_score"`
	ContentMaxScore  float64           `json:"content_max_score"`
	FillerWordCount  int               `json:"filler_word_count"`
	FillerWordScore  int               `json:"filler_word_score"`
	FillerWordCounts map[string]int    `json:"filler_word_counts"`
	FillerWordsUsed  []string          `json:"filler_words_used"`
	IsFallback       bool              `json:"is_fallback"`
	GradedAt         time.Time         `json:"graded_at"`
	Feedback         *FeedbackResponse `json:"feedback,omitempty"`
}

type SubmissionResponse struct {
	ID                    string         `json:"id"`
	StudentName           string         `json:"student_name,omitempty"`
	AssignmentTitle       string         `json:"assignment_title"`
	VideoURL              string         `json:"video_url"`
	Status                string         `json:"status"`
	Transcript            string         `json:"transcript,omitempty"`
	ErrorMessage          *string        `json:"error_message,omitempty"`
	ProcessingStartedAt   *time.Time     `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time     `json:"processing_completed_at,omitempty"`
	Grade                 *GradeResponse `json:"grade,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// QueueItemResponse exposes an item's processing history for debugging a
// stuck or failed submission.
type QueueItemResponse struct {
	ID                  uint       `json:"id"`
	SubmissionID        string     `json:"submission_id"`
	Status              string     `json:"status"`
	Attempts            int        `json:"attempts"`
	MaxAttempts         int        `json:"max_attempts"`
	Priority            int        `json:"priority"`
	ErrorMessage        *string    `json:"error_message,omitempty"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
