// models/team.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team is one playing team. Name stays nil until the team registers on the
// first task. The three totals are denormalized for display and leaderboards;
// they are recomputed from the team's TeamTask rows inside every mutating
// transaction, never incremented blindly.
type Team struct {
	ID string `json:"id" gorm:"primaryKey;size:36"`

	// Unique join token handed out on paper. Matched case-insensitively and
	// kept out of JSON responses.
	EntryCode string `json:"-" gorm:"uniqueIndex;size:16;not null"`

	Name       *string `json:"name"`
	HasEntered bool    `json:"hasEntered" gorm:"not null;default:false"`

	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`

	TotalPoints        int `json:"totalPoints" gorm:"not null;default:0"`
	TotalBonusPoints   int `json:"totalBonusPoints" gorm:"not null;default:0"`
	TotalHintPenalties int `json:"totalHintPenalties" gorm:"not null;default:0"`

	Tasks []TeamTask `json:"-" gorm:"foreignKey:TeamID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
