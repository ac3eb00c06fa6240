// models/task.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a template for one stop of the race. Templates are immutable at
// runtime; every team plays the same set of tasks in its own order via TeamTask.
//
// CompletionCode is the secret players must find in the real world. It is never
// serialized on player-facing responses (admin views build their own payload).
type Task struct {
	ID                    string  `json:"id" gorm:"primaryKey;size:36"`
	Title                 string  `json:"title" gorm:"not null;size:200"`
	Description           string  `json:"description" gorm:"not null;type:text"`
	DetailedDescription   *string `json:"detailedDescription,omitempty" gorm:"type:text"`
	BonusPhotoDescription *string `json:"bonusPhotoDescription,omitempty" gorm:"type:text"`

	Points            int     `json:"points" gorm:"not null;default:0"`
	BonusPoints       int     `json:"bonusPoints" gorm:"not null;default:0"`
	Hint              *string `json:"hint,omitempty" gorm:"type:text"`
	HintPointsPenalty int     `json:"hintPointsPenalty" gorm:"not null;default:0"`

	// Secret. The registration task (order 1) has none.
	CompletionCode *string `json:"-" gorm:"size:100"`

	// Default catalog position, 1-based. Per-team order lives on TeamTask.
	Order int `json:"order" gorm:"column:task_order;not null;uniqueIndex"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// HasCompletionCode reports whether this task is completed by code submission
// (everything except the registration task).
func (t *Task) HasCompletionCode() bool {
	return t.CompletionCode != nil && *t.CompletionCode != ""
}

// HasHint reports whether a hint is configured for this task.
func (t *Task) HasHint() bool {
	return t.Hint != nil && *t.Hint != ""
}
