// handlers/tasks.go - Task catalog endpoint
package handlers

import "github.com/gofiber/fiber/v2"

// GetTasks returns the task catalog in default order. Completion codes never
// serialize on the Task model, so this payload is safe for any client.
// GET /api/tasks
func GetTasks(c *fiber.Ctx) error {
	tasks, err := gameService.ListTasks()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(tasks)
}
