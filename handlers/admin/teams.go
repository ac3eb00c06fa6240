// handlers/admin/teams.go - Organizer team monitoring and reset
package admin

import (
	"errors"
	"log"

	"github.com/la7jones92/spooky-race/database"
	"github.com/la7jones92/spooky-race/models"
	"github.com/la7jones92/spooky-race/services"

	"github.com/gofiber/fiber/v2"
)

var adminService *services.AdminService

// InitAdminHandlers wires the admin handlers to the database.
func InitAdminHandlers() {
	adminService = services.NewAdminService(database.GetDB())
}

// adminTask re-exposes the completion code, which the player-facing Task
// serialization hides. Organizers need it to help stuck teams.
type adminTask struct {
	models.Task
	CompletionCode *string `json:"completionCode"`
}

type adminTeamTask struct {
	models.TeamTask
	Task *adminTask `json:"task,omitempty"`
}

func toAdminTeamTasks(tts []models.TeamTask) []adminTeamTask {
	out := make([]adminTeamTask, 0, len(tts))
	for _, tt := range tts {
		att := adminTeamTask{TeamTask: tt}
		if tt.Task != nil {
			att.Task = &adminTask{Task: *tt.Task, CompletionCode: tt.Task.CompletionCode}
		}
		out = append(out, att)
	}
	return out
}

// GetTeams returns the dashboard summary list.
// GET /api/admin/teams
func GetTeams(c *fiber.Ctx) error {
	summaries, err := adminService.ListTeams()
	if err != nil {
		log.Printf("admin team list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load teams"})
	}
	return c.JSON(summaries)
}

// GetTeam returns the full drill-down for one team, completion codes and
// submission history included.
// GET /api/admin/teams/:id
func GetTeam(c *fiber.Ctx) error {
	detail, err := adminService.GetTeamDetail(c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Team not found"})
		}
		log.Printf("admin team detail failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load team"})
	}

	return c.JSON(fiber.Map{
		"team":             detail.Team,
		"teamTasks":        toAdminTeamTasks(detail.TeamTasks),
		"lastSubmissionAt": detail.LastSubmissionAt,
	})
}

// ResetTeam restores a team to its freshly-seeded state.
// POST /api/admin/teams/:id/reset
func ResetTeam(c *fiber.Ctx) error {
	if err := adminService.ResetTeam(c.Params("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Team not found"})
		}
		log.Printf("admin team reset failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to reset team"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Team reset to initial state",
	})
}
