// models/team_task.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the per-team lifecycle of a single task.
//
//	LOCKED --> UNLOCKED --> COMPLETED
//	                   \--> SKIPPED
//
// COMPLETED and SKIPPED are terminal; both advance the frontier.
type TaskStatus string

const (
	TaskStatusLocked    TaskStatus = "LOCKED"
	TaskStatusUnlocked  TaskStatus = "UNLOCKED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusSkipped   TaskStatus = "SKIPPED"
)

// Resolved reports whether the status is terminal.
func (s TaskStatus) Resolved() bool {
	return s == TaskStatusCompleted || s == TaskStatusSkipped
}

// TeamTask is one team's instance of a Task. Order is the team-specific
// sequence position (routes are shuffled per team at seed time), a contiguous
// 1..N unique per team.
//
// PointsAwarded is frozen at completion time (base points minus the hint
// penalty when a hint was used) and never rewritten. BonusAwarded moves from
// 0 to the task's bonus points at most once, when a bonus photo is accepted.
type TeamTask struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	TeamID string `json:"teamId" gorm:"size:36;not null;uniqueIndex:idx_team_tasks_team_task;uniqueIndex:idx_team_tasks_team_order;index"`
	TaskID string `json:"taskId" gorm:"size:36;not null;uniqueIndex:idx_team_tasks_team_task"`

	Order  int        `json:"order" gorm:"column:task_order;not null;uniqueIndex:idx_team_tasks_team_order"`
	Status TaskStatus `json:"status" gorm:"size:16;not null;default:'LOCKED'"`

	UnlockedAt  *time.Time `json:"unlockedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	SkippedAt   *time.Time `json:"skippedAt"`

	HintUsed      bool `json:"hintUsed" gorm:"not null;default:false"`
	PointsAwarded int  `json:"pointsAwarded" gorm:"not null;default:0"`
	BonusAwarded  int  `json:"bonusAwarded" gorm:"not null;default:0"`

	BonusPhotoID *string `json:"bonusPhotoId" gorm:"size:36"`
	BonusPhoto   *Upload `json:"bonusPhoto,omitempty" gorm:"foreignKey:BonusPhotoID"`

	Task        *Task        `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:TeamTaskID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TeamTask) TableName() string {
	return "team_tasks"
}

func (t *TeamTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
