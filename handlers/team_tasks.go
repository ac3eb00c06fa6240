// handlers/team_tasks.go - Task progression endpoints
package handlers

import (
	"encoding/base64"

	"github.com/la7jones92/spooky-race/models"

	"github.com/gofiber/fiber/v2"
)

// GetTeamTasks returns the team's route in play order.
// GET /api/teamTasks?entryCode=GHO5T
func GetTeamTasks(c *fiber.Ctx) error {
	entryCode := c.Query("entryCode")
	if entryCode == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "entryCode is required"})
	}

	tts, err := gameService.GetTeamTasks(entryCode)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(tts)
}

// SubmitCode checks a completion code. Wrong codes are a normal game outcome:
// 200 with {result: FAILURE}, never an error status.
// POST /api/teamTasks/submit {entryCode, taskId, code}
func SubmitCode(c *fiber.Ctx) error {
	var req struct {
		EntryCode string `json:"entryCode"`
		TaskID    string `json:"taskId"`
		Code      string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	result, err := gameService.SubmitCode(req.EntryCode, req.TaskID, req.Code)
	if err != nil {
		return serviceError(c, err)
	}

	if result.Result == models.SubmissionFailure {
		return c.JSON(fiber.Map{"result": models.SubmissionFailure})
	}

	return c.JSON(fiber.Map{
		"result":  models.SubmissionSuccess,
		"current": result.Current,
		"next":    result.Next,
		"totals":  result.Totals,
	})
}

// SkipTask forfeits the unlocked task and opens the next one.
// POST /api/teamTasks/skip {entryCode, taskId}
func SkipTask(c *fiber.Ctx) error {
	var req struct {
		EntryCode string `json:"entryCode"`
		TaskID    string `json:"taskId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	result, err := gameService.SkipTask(req.EntryCode, req.TaskID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"current": result.Current,
		"next":    result.Next,
	})
}

// UseHint reveals the hint and charges its penalty (once).
// POST /api/teamTasks/hint {entryCode, taskId}
func UseHint(c *fiber.Ctx) error {
	var req struct {
		EntryCode string `json:"entryCode"`
		TaskID    string `json:"taskId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	result, err := gameService.UseHint(req.EntryCode, req.TaskID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"teamTask":          result.TeamTask,
		"hint":              result.Hint,
		"hintPointsPenalty": result.HintPointsPenalty,
		"totals":            result.Totals,
	})
}

// SubmitBonusPhoto accepts a base64 photo for a completed task.
// POST /api/teamTasks/bonusPhoto {entryCode, taskId, filename, contentType, sizeBytes, dataBase64}
func SubmitBonusPhoto(c *fiber.Ctx) error {
	var req struct {
		EntryCode   string `json:"entryCode"`
		TaskID      string `json:"taskId"`
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		SizeBytes   int64  `json:"sizeBytes"`
		DataBase64  string `json:"dataBase64"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "dataBase64 is not valid base64"})
	}

	result, err := gameService.SubmitBonusPhoto(req.EntryCode, req.TaskID, req.Filename, req.ContentType, data)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"teamTask": result.TeamTask,
		"totals":   result.Totals,
	})
}
