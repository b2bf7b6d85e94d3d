package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// WordCounts maps a filler word or phrase to how many times it was used.
// Stored as a JSONB column.
type WordCounts map[string]int

func (w WordCounts) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	b, err := json.Marshal(w)
	return string(b), err
}

func (w *WordCounts) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	case nil:
		*w = nil
		return nil
	}
	return fmt.Errorf("unsupported type %T for WordCounts", value)
}

// WordList is a JSONB-backed string slice.
type WordList []string

func (l WordList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *WordList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	}
	return fmt.Errorf("unsupported type %T for WordList", value)
}

// Grade holds the scored outcome for a submission. At most one per
// submission; a re-submission overwrites it rather than appending.
//
// When the content evaluation could not be parsed into structured scores,
// IsFallback is set and RawEvaluation keeps the model's response verbatim
// for manual review. TotalScore is 0 in that case and the UI is expected to
// surface the fallback state, not a zero grade.
type Grade struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	SubmissionID     string         `json:"submission_id" gorm:"type:uuid;not null;uniqueIndex"`
	TotalScore       int            `json:"total_score"`
	ContentScore     float64        `json:"content_score"`
	ContentMaxScore  float64        `json:"content_max_score"`
	FillerWordCount  int            `json:"filler_word_count"`
	FillerWordScore  int            `json:"filler_word_score"`
	FillerWordCounts WordCounts     `json:"filler_word_counts" gorm:"type:jsonb"`
	FillerWordsUsed  WordList       `json:"filler_words_used" gorm:"type:jsonb"`
	IsFallback       bool           `json:"is_fallback" gorm:"default:false"`
	RawEvaluation    *string        `json:"raw_evaluation,omitempty" gorm:"type:text"`
	GradedAt         time.Time      `json:"graded_at"`
	Feedback         *Feedback      `json:"feedback,omitempty" gorm:"foreignKey:GradeID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
