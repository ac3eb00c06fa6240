// services/admin_service.go - Organizer views and team reset
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/la7jones92/spooky-race/models"

	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// TeamStats counts a team's tasks by status for the dashboard.
type TeamStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Unlocked  int `json:"unlocked"`
	Locked    int `json:"locked"`
}

// CurrentTaskRef points at the team's frontier task, if any.
type CurrentTaskRef struct {
	Order int     `json:"order"`
	Title *string `json:"title"`
}

// TeamSummary is one row of the admin dashboard list.
type TeamSummary struct {
	ID               string          `json:"id"`
	Name             *string         `json:"name"`
	HasEntered       bool            `json:"hasEntered"`
	StartedAt        *time.Time      `json:"startedAt"`
	FinishedAt       *time.Time      `json:"finishedAt"`
	TotalPoints      int             `json:"totalPoints"`
	TotalBonusPoints int             `json:"totalBonusPoints"`
	Stats            TeamStats       `json:"stats"`
	CurrentTask      *CurrentTaskRef `json:"currentTask"`
	LastSubmissionAt *time.Time      `json:"lastSubmissionAt"`
}

// TeamDetail is the full drill-down for one team, tasks in route order with
// their submission history and photo references.
type TeamDetail struct {
	Team             *models.Team
	TeamTasks        []models.TeamTask
	LastSubmissionAt *time.Time
}

// ListTeams builds the dashboard summary for every team.
func (s *AdminService) ListTeams() ([]TeamSummary, error) {
	var teams []models.Team
	if err := s.db.Order("entry_code ASC").Find(&teams).Error; err != nil {
		return nil, err
	}

	var tts []models.TeamTask
	if err := s.db.Preload("Task").Order("task_order ASC").Find(&tts).Error; err != nil {
		return nil, err
	}
	byTeam := make(map[string][]models.TeamTask, len(teams))
	for _, tt := range tts {
		byTeam[tt.TeamID] = append(byTeam[tt.TeamID], tt)
	}

	lastSub, err := s.lastSubmissionTimes()
	if err != nil {
		return nil, err
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for i := range teams {
		team := &teams[i]
		summary := TeamSummary{
			ID:               team.ID,
			Name:             team.Name,
			HasEntered:       team.HasEntered,
			StartedAt:        team.StartedAt,
			FinishedAt:       team.FinishedAt,
			TotalPoints:      team.TotalPoints,
			TotalBonusPoints: team.TotalBonusPoints,
		}
		for _, tt := range byTeam[team.ID] {
			summary.Stats.Total++
			switch tt.Status {
			case models.TaskStatusCompleted:
				summary.Stats.Completed++
			case models.TaskStatusSkipped:
				summary.Stats.Skipped++
			case models.TaskStatusUnlocked:
				summary.Stats.Unlocked++
				if summary.CurrentTask == nil {
					ref := CurrentTaskRef{Order: tt.Order}
					if tt.Task != nil {
						ref.Title = &tt.Task.Title
					}
					summary.CurrentTask = &ref
				}
			case models.TaskStatusLocked:
				summary.Stats.Locked++
			}
		}
		if at, ok := lastSub[team.ID]; ok {
			t := at
			summary.LastSubmissionAt = &t
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// lastSubmissionTimes maps team id to the time of its latest code attempt.
func (s *AdminService) lastSubmissionTimes() (map[string]time.Time, error) {
	var subs []models.Submission
	if err := s.db.Select("team_id", "created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	latest := make(map[string]time.Time)
	for _, sub := range subs {
		if at, ok := latest[sub.TeamID]; !ok || sub.CreatedAt.After(at) {
			latest[sub.TeamID] = sub.CreatedAt
		}
	}
	return latest, nil
}

// GetTeamDetail returns one team with its full route, submission history and
// photo metadata. Organizer-only: the handler layer is free to expose
// completion codes here.
func (s *AdminService) GetTeamDetail(teamID string) (*TeamDetail, error) {
	var team models.Team
	err := s.db.First(&team, "id = ?", teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: team", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var tts []models.TeamTask
	err = s.db.Preload("Task").
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("BonusPhoto", func(db *gorm.DB) *gorm.DB {
			// Metadata only; the bytes are served by the uploads route.
			return db.Select("id", "filename", "content_type", "size_bytes", "team_id", "created_at")
		}).
		Where("team_id = ?", team.ID).
		Order("task_order ASC").
		Find(&tts).Error
	if err != nil {
		return nil, err
	}

	detail := &TeamDetail{Team: &team, TeamTasks: tts}
	for _, tt := range tts {
		for _, sub := range tt.Submissions {
			if detail.LastSubmissionAt == nil || sub.CreatedAt.After(*detail.LastSubmissionAt) {
				t := sub.CreatedAt
				detail.LastSubmissionAt = &t
			}
		}
	}
	return detail, nil
}

// ResetTeam restores a team to its freshly-seeded state: route relocked with
// only the first task open, awards zeroed, submissions and photos deleted,
// name and timestamps cleared.
func (s *AdminService) ResetTeam(teamID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		err := tx.First(&team, "id = ?", teamID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: team", ErrNotFound)
		}
		if err != nil {
			return err
		}
		return s.resetTeamTx(tx, &team)
	})
}

// ResetTeamByEntryCode is the CLI entry point for cmd/reset-teams.
func (s *AdminService) ResetTeamByEntryCode(entryCode string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		err := tx.Where("UPPER(entry_code) = ?", NormalizeCode(entryCode)).First(&team).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: team", ErrNotFound)
		}
		if err != nil {
			return err
		}
		return s.resetTeamTx(tx, &team)
	})
}

// ListEntryCodes returns every team's entry code (for reset --all).
func (s *AdminService) ListEntryCodes() ([]string, error) {
	var codes []string
	err := s.db.Model(&models.Team{}).Order("entry_code ASC").Pluck("entry_code", &codes).Error
	return codes, err
}

func (s *AdminService) resetTeamTx(tx *gorm.DB, team *models.Team) error {
	if err := tx.Where("team_id = ?", team.ID).Delete(&models.Submission{}).Error; err != nil {
		return err
	}

	// Relock the route before dropping uploads so no photo reference dangles.
	now := time.Now().UTC()
	cleared := map[string]interface{}{
		"status":         models.TaskStatusLocked,
		"unlocked_at":    nil,
		"completed_at":   nil,
		"skipped_at":     nil,
		"hint_used":      false,
		"points_awarded": 0,
		"bonus_awarded":  0,
		"bonus_photo_id": nil,
	}
	if err := tx.Model(&models.TeamTask{}).Where("team_id = ?", team.ID).Updates(cleared).Error; err != nil {
		return err
	}
	err := tx.Model(&models.TeamTask{}).
		Where("team_id = ? AND task_order = 1", team.ID).
		Updates(map[string]interface{}{
			"status":      models.TaskStatusUnlocked,
			"unlocked_at": now,
		}).Error
	if err != nil {
		return err
	}

	if err := tx.Where("team_id = ?", team.ID).Delete(&models.Upload{}).Error; err != nil {
		return err
	}

	return tx.Model(&models.Team{}).Where("id = ?", team.ID).
		Updates(map[string]interface{}{
			"name":                 nil,
			"has_entered":          false,
			"started_at":           nil,
			"finished_at":          nil,
			"total_points":         0,
			"total_bonus_points":   0,
			"total_hint_penalties": 0,
		}).Error
}
