// handlers/team.go - Team lookup and registration
package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetTeam validates an entry code and returns the team summary.
// GET /api/team?entryCode=GHO5T
func GetTeam(c *fiber.Ctx) error {
	entryCode := c.Query("entryCode")
	if entryCode == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "entryCode is required"})
	}

	team, err := gameService.GetTeamByEntryCode(entryCode)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(team)
}

// RegisterTeam names the team and resolves the registration task.
// POST /api/team/register {entryCode, teamName}
func RegisterTeam(c *fiber.Ctx) error {
	var req struct {
		EntryCode string `json:"entryCode"`
		TeamName  string `json:"teamName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	result, err := gameService.RegisterTeam(req.EntryCode, req.TeamName)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"result":  "SUCCESS",
		"team":    result.Team,
		"current": result.Current,
		"next":    result.Next,
		"totals":  result.Totals,
	})
}
