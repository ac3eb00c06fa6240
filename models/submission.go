// models/submission.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionResult string

const (
	SubmissionSuccess SubmissionResult = "SUCCESS"
	SubmissionFailure SubmissionResult = "FAILURE"
)

// Submission is one code-entry attempt, successful or not. The log is
// append-only; rows are removed only by a team reset.
//
// MatchedTaskID is a diagnostic: the task whose completion code the provided
// input actually matched, if any. When a team types a valid code against the
// wrong task this shows the organizers what happened.
type Submission struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	TeamID     string `json:"teamId" gorm:"size:36;not null;index"`
	TeamTaskID string `json:"teamTaskId" gorm:"size:36;not null;index"`

	ProvidedCode  string           `json:"providedCode" gorm:"not null;size:200"`
	Result        SubmissionResult `json:"result" gorm:"size:16;not null"`
	MatchedTaskID *string          `json:"matchedTaskId" gorm:"size:36"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
