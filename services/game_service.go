// services/game_service.go - Progression engine
//
// All mutation of team progress goes through the five operations here:
// RegisterTeam, SubmitCode, SkipTask, UseHint and SubmitBonusPhoto. Each runs
// as one transaction; status transitions are guarded updates (WHERE on the
// expected prior state) so a concurrent duplicate request loses the race and
// lands on the idempotent path instead of double-crediting.
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/la7jones92/spooky-race/models"

	"gorm.io/gorm"
)

type GameService struct {
	db *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{db: db}
}

// Totals mirrors the denormalized team counters returned with every mutation.
type Totals struct {
	TotalPoints        int `json:"totalPoints"`
	TotalBonusPoints   int `json:"totalBonusPoints"`
	TotalHintPenalties int `json:"totalHintPenalties"`
}

func teamTotals(t *models.Team) Totals {
	return Totals{
		TotalPoints:        t.TotalPoints,
		TotalBonusPoints:   t.TotalBonusPoints,
		TotalHintPenalties: t.TotalHintPenalties,
	}
}

type RegisterResult struct {
	Team    *models.Team
	Current *models.TeamTask
	Next    *models.TeamTask
	Totals  Totals
}

type SubmitResult struct {
	Result  models.SubmissionResult
	Current *models.TeamTask
	Next    *models.TeamTask
	Totals  Totals
}

type SkipResult struct {
	Current *models.TeamTask
	Next    *models.TeamTask
}

type HintResult struct {
	TeamTask          *models.TeamTask
	Hint              string
	HintPointsPenalty int
	Totals            Totals
}

type BonusResult struct {
	TeamTask *models.TeamTask
	Totals   Totals
}

// ================== READ OPERATIONS ==================

// GetTeamByEntryCode resolves a team from its (case-insensitive) entry code.
func (s *GameService) GetTeamByEntryCode(entryCode string) (*models.Team, error) {
	return s.teamByEntryCode(s.db, entryCode)
}

// GetTeamTasks returns the team's route in play order, each row embedding its
// task template. Completion codes never serialize on Task, so the payload is
// safe for players.
func (s *GameService) GetTeamTasks(entryCode string) ([]models.TeamTask, error) {
	team, err := s.teamByEntryCode(s.db, entryCode)
	if err != nil {
		return nil, err
	}

	var tts []models.TeamTask
	err = s.db.Preload("Task").
		Where("team_id = ?", team.ID).
		Order("task_order ASC").
		Find(&tts).Error
	return tts, err
}

// ListTasks returns the task catalog in default order.
func (s *GameService) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Order("task_order ASC").Find(&tasks).Error
	return tasks, err
}

// ================== ENGINE OPERATIONS ==================

// RegisterTeam names the team and resolves the registration task (order 1).
// The name is (re)applied on every call, startedAt is set only once, and the
// order-1 award happens at most once, so re-registration is harmless.
func (s *GameService) RegisterTeam(entryCode, teamName string) (*RegisterResult, error) {
	name := strings.TrimSpace(teamName)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	var out RegisterResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, err := s.teamByEntryCode(tx, entryCode)
		if err != nil {
			return err
		}

		tt, err := s.teamTaskAt(tx, team.ID, 1)
		if err != nil {
			return err
		}
		if tt == nil {
			return fmt.Errorf("%w: registration task", ErrNotFound)
		}

		now := time.Now().UTC()

		err = tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Updates(map[string]interface{}{"name": name, "has_entered": true}).Error
		if err != nil {
			return err
		}
		// First registration wins the start time; re-registering keeps it.
		err = tx.Model(&models.Team{}).
			Where("id = ? AND started_at IS NULL", team.ID).
			Update("started_at", now).Error
		if err != nil {
			return err
		}

		if tt.Status != models.TaskStatusCompleted {
			awarded := AwardedPoints(tt.Task.Points, tt.Task.HintPointsPenalty, tt.HintUsed)
			res := tx.Model(&models.TeamTask{}).
				Where("id = ? AND status <> ?", tt.ID, models.TaskStatusCompleted).
				Updates(map[string]interface{}{
					"status":         models.TaskStatusCompleted,
					"completed_at":   now,
					"points_awarded": awarded,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if _, err := s.unlockNext(tx, team.ID, tt.Order); err != nil {
					return err
				}
			}
		}

		if err := s.recomputeTotals(tx, team.ID); err != nil {
			return err
		}

		return s.loadOutcome(tx, team.ID, tt.ID, func(team *models.Team, cur, next *models.TeamTask) {
			out = RegisterResult{Team: team, Current: cur, Next: next, Totals: teamTotals(team)}
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitCode checks a typed completion code against the task's secret.
//
// Wrong codes, locked tasks and skipped tasks come back as a FAILURE result,
// not an error. A correct code on an already-completed task is an idempotent
// SUCCESS: logged, but never re-awarded. Every attempt is appended to the
// submission log with a diagnostic of which task's code it actually matched.
func (s *GameService) SubmitCode(entryCode, taskID, code string) (*SubmitResult, error) {
	provided := strings.TrimSpace(code)

	var out SubmitResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, err := s.teamByEntryCode(tx, entryCode)
		if err != nil {
			return err
		}
		tt, err := s.teamTask(tx, team.ID, taskID)
		if err != nil {
			return err
		}
		if !tt.Task.HasCompletionCode() {
			return fmt.Errorf("%w: task has no completion code", ErrInvalidState)
		}

		matched := CodeMatches(provided, *tt.Task.CompletionCode)
		var matchedID *string
		if matched {
			id := tt.TaskID
			matchedID = &id
		} else {
			matchedID, err = s.matchedTaskID(tx, provided)
			if err != nil {
				return err
			}
		}

		result := models.SubmissionFailure
		switch {
		case matched && tt.Status == models.TaskStatusCompleted:
			// Replayed success (client retry). Acknowledge without touching state.
			result = models.SubmissionSuccess

		case matched && tt.Status == models.TaskStatusUnlocked:
			result = models.SubmissionSuccess
			now := time.Now().UTC()
			awarded := AwardedPoints(tt.Task.Points, tt.Task.HintPointsPenalty, tt.HintUsed)
			res := tx.Model(&models.TeamTask{}).
				Where("id = ? AND status = ?", tt.ID, models.TaskStatusUnlocked).
				Updates(map[string]interface{}{
					"status":         models.TaskStatusCompleted,
					"completed_at":   now,
					"points_awarded": awarded,
				})
			if res.Error != nil {
				return res.Error
			}
			// RowsAffected == 0 means a concurrent submit got there first;
			// the award it recorded stands and this request just acknowledges.
			if res.RowsAffected > 0 {
				if _, err := s.unlockNext(tx, team.ID, tt.Order); err != nil {
					return err
				}
				if err := s.recomputeTotals(tx, team.ID); err != nil {
					return err
				}
			}
		}

		if err := s.logSubmission(tx, team.ID, tt.ID, provided, result, matchedID); err != nil {
			return err
		}

		return s.loadOutcome(tx, team.ID, tt.ID, func(team *models.Team, cur, next *models.TeamTask) {
			out = SubmitResult{Result: result, Current: cur, Next: next, Totals: teamTotals(team)}
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SkipTask forfeits an unlocked task entirely: zero points, even if a hint
// penalty had been taken, and the next task unlocks. Skipping an already
// skipped task is a no-op; skipping a completed one is rejected.
func (s *GameService) SkipTask(entryCode, taskID string) (*SkipResult, error) {
	var out SkipResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, err := s.teamByEntryCode(tx, entryCode)
		if err != nil {
			return err
		}
		tt, err := s.teamTask(tx, team.ID, taskID)
		if err != nil {
			return err
		}

		switch tt.Status {
		case models.TaskStatusCompleted:
			return fmt.Errorf("%w: cannot skip a completed task", ErrInvalidState)
		case models.TaskStatusLocked:
			return fmt.Errorf("%w: task is locked", ErrInvalidState)
		case models.TaskStatusUnlocked:
			now := time.Now().UTC()
			res := tx.Model(&models.TeamTask{}).
				Where("id = ? AND status = ?", tt.ID, models.TaskStatusUnlocked).
				Updates(map[string]interface{}{
					"status":         models.TaskStatusSkipped,
					"skipped_at":     now,
					"points_awarded": 0,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if _, err := s.unlockNext(tx, team.ID, tt.Order); err != nil {
					return err
				}
				if err := s.recomputeTotals(tx, team.ID); err != nil {
					return err
				}
			}
		case models.TaskStatusSkipped:
			// Already skipped: fall through and return current state.
		}

		return s.loadOutcome(tx, team.ID, tt.ID, func(_ *models.Team, cur, next *models.TeamTask) {
			out = SkipResult{Current: cur, Next: next}
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UseHint reveals the task's hint and charges the penalty.
//
// The penalty is accounted twice on purpose, matching the game's display
// rules: once into the running totalHintPenalties counter as soon as the hint
// is taken, and again as a deduction from pointsAwarded when the task later
// completes. HintUsed is sticky, so repeated calls charge nothing further.
func (s *GameService) UseHint(entryCode, taskID string) (*HintResult, error) {
	var out HintResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, err := s.teamByEntryCode(tx, entryCode)
		if err != nil {
			return err
		}
		tt, err := s.teamTask(tx, team.ID, taskID)
		if err != nil {
			return err
		}
		if !tt.Task.HasHint() {
			return fmt.Errorf("%w: no hint configured for this task", ErrInvalidState)
		}

		if !tt.HintUsed {
			if tt.Status != models.TaskStatusUnlocked {
				return fmt.Errorf("%w: hint is only available on the unlocked task", ErrInvalidState)
			}
			res := tx.Model(&models.TeamTask{}).
				Where("id = ? AND hint_used = ? AND status = ?", tt.ID, false, models.TaskStatusUnlocked).
				Update("hint_used", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := s.recomputeTotals(tx, team.ID); err != nil {
					return err
				}
			}
		}

		return s.loadOutcome(tx, team.ID, tt.ID, func(team *models.Team, cur, _ *models.TeamTask) {
			out = HintResult{
				TeamTask:          cur,
				Hint:              *tt.Task.Hint,
				HintPointsPenalty: tt.Task.HintPointsPenalty,
				Totals:            teamTotals(team),
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBonusPhoto stores the photo and credits the task's bonus points, once.
// A second photo for the same task returns the existing award untouched.
func (s *GameService) SubmitBonusPhoto(entryCode, taskID, filename, contentType string, data []byte) (*BonusResult, error) {
	if contentType == "" {
		return nil, fmt.Errorf("%w: contentType is required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: photo data is required", ErrInvalidInput)
	}
	if len(data) > MaxBonusPhotoBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrPayloadTooLarge, MaxBonusPhotoBytes)
	}

	var out BonusResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		team, err := s.teamByEntryCode(tx, entryCode)
		if err != nil {
			return err
		}
		tt, err := s.teamTask(tx, team.ID, taskID)
		if err != nil {
			return err
		}

		if tt.BonusAwarded == 0 {
			if tt.Status != models.TaskStatusCompleted {
				return fmt.Errorf("%w: bonus photo requires a completed task", ErrInvalidState)
			}

			upload := models.Upload{
				ContentType: contentType,
				SizeBytes:   int64(len(data)),
				Data:        data,
				TeamID:      &team.ID,
			}
			if filename != "" {
				upload.Filename = &filename
			}
			if err := tx.Create(&upload).Error; err != nil {
				return err
			}

			res := tx.Model(&models.TeamTask{}).
				Where("id = ? AND bonus_awarded = 0", tt.ID).
				Updates(map[string]interface{}{
					"bonus_awarded":  tt.Task.BonusPoints,
					"bonus_photo_id": upload.ID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// A concurrent upload already claimed the bonus; drop ours.
				if err := tx.Delete(&upload).Error; err != nil {
					return err
				}
			} else if err := s.recomputeTotals(tx, team.ID); err != nil {
				return err
			}
		}

		return s.loadOutcome(tx, team.ID, tt.ID, func(team *models.Team, cur, _ *models.TeamTask) {
			out = BonusResult{TeamTask: cur, Totals: teamTotals(team)}
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ================== SHARED INTERNALS ==================

func (s *GameService) teamByEntryCode(tx *gorm.DB, entryCode string) (*models.Team, error) {
	var team models.Team
	err := tx.Where("UPPER(entry_code) = ?", NormalizeCode(entryCode)).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: team", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *GameService) teamTask(tx *gorm.DB, teamID, taskID string) (*models.TeamTask, error) {
	var tt models.TeamTask
	err := tx.Preload("Task").
		Where("team_id = ? AND task_id = ?", teamID, taskID).
		First(&tt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: task", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// teamTaskAt returns the team's task at a sequence position, or nil when the
// position is past the end of the route.
func (s *GameService) teamTaskAt(tx *gorm.DB, teamID string, order int) (*models.TeamTask, error) {
	var tt models.TeamTask
	err := tx.Preload("Task").
		Where("team_id = ? AND task_order = ?", teamID, order).
		First(&tt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// unlockNext advances the frontier after the task at resolvedOrder resolved.
// The single shared implementation for register/submit/skip: unlock order+1
// if it is still locked, or stamp the team finished when there is no order+1.
// An already-unlocked successor is left untouched.
func (s *GameService) unlockNext(tx *gorm.DB, teamID string, resolvedOrder int) (*models.TeamTask, error) {
	next, err := s.teamTaskAt(tx, teamID, resolvedOrder+1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if next == nil {
		// Route exhausted - the team is done. First resolver sets the time.
		err := tx.Model(&models.Team{}).
			Where("id = ? AND finished_at IS NULL", teamID).
			Update("finished_at", now).Error
		return nil, err
	}

	if next.Status == models.TaskStatusLocked {
		res := tx.Model(&models.TeamTask{}).
			Where("id = ? AND status = ?", next.ID, models.TaskStatusLocked).
			Updates(map[string]interface{}{
				"status":      models.TaskStatusUnlocked,
				"unlocked_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.teamTaskAt(tx, teamID, resolvedOrder+1)
}

// recomputeTotals derives the team counters from the TeamTask rows. Totals are
// never trusted incrementally; every mutating transaction ends here.
func (s *GameService) recomputeTotals(tx *gorm.DB, teamID string) error {
	var totalPoints, totalBonus, totalHint int

	err := tx.Model(&models.TeamTask{}).
		Where("team_id = ? AND status = ?", teamID, models.TaskStatusCompleted).
		Select("COALESCE(SUM(points_awarded), 0)").
		Scan(&totalPoints).Error
	if err != nil {
		return err
	}

	err = tx.Model(&models.TeamTask{}).
		Where("team_id = ?", teamID).
		Select("COALESCE(SUM(bonus_awarded), 0)").
		Scan(&totalBonus).Error
	if err != nil {
		return err
	}

	// Hint penalties count from the moment the hint is taken, even if the
	// task is later skipped - the completion-time deduction is separate.
	err = tx.Model(&models.TeamTask{}).
		Joins("JOIN tasks ON tasks.id = team_tasks.task_id").
		Where("team_tasks.team_id = ? AND team_tasks.hint_used = ?", teamID, true).
		Select("COALESCE(SUM(tasks.hint_points_penalty), 0)").
		Scan(&totalHint).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Team{}).Where("id = ?", teamID).
		Updates(map[string]interface{}{
			"total_points":         totalPoints,
			"total_bonus_points":   totalBonus,
			"total_hint_penalties": totalHint,
		}).Error
}

// matchedTaskID scans the catalog for the task whose completion code the
// provided input matches, for the submission-log diagnostic.
func (s *GameService) matchedTaskID(tx *gorm.DB, provided string) (*string, error) {
	var tasks []models.Task
	err := tx.Where("completion_code IS NOT NULL").
		Order("task_order ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if CodeMatches(provided, *t.CompletionCode) {
			id := t.ID
			return &id, nil
		}
	}
	return nil, nil
}

func (s *GameService) logSubmission(tx *gorm.DB, teamID, teamTaskID, provided string, result models.SubmissionResult, matchedTaskID *string) error {
	return tx.Create(&models.Submission{
		TeamID:        teamID,
		TeamTaskID:    teamTaskID,
		ProvidedCode:  provided,
		Result:        result,
		MatchedTaskID: matchedTaskID,
	}).Error
}

// loadOutcome re-reads team, current task and its successor after a mutation
// so callers always see post-transition state.
func (s *GameService) loadOutcome(tx *gorm.DB, teamID, teamTaskID string, fill func(team *models.Team, cur, next *models.TeamTask)) error {
	var team models.Team
	if err := tx.First(&team, "id = ?", teamID).Error; err != nil {
		return err
	}

	var cur models.TeamTask
	if err := tx.Preload("Task").First(&cur, "id = ?", teamTaskID).Error; err != nil {
		return err
	}

	next, err := s.teamTaskAt(tx, teamID, cur.Order+1)
	if err != nil {
		return err
	}

	fill(&team, &cur, next)
	return nil
}
