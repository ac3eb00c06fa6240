// handlers/handlers.go - Player-facing HTTP handlers (wiring + error mapping)
package handlers

import (
	"errors"
	"log"

	"github.com/la7jones92/spooky-race/database"
	"github.com/la7jones92/spooky-race/services"

	"github.com/gofiber/fiber/v2"
)

var (
	gameService   *services.GameService
	uploadService *services.UploadService
)

// InitHandlers wires the player handlers to the database.
func InitHandlers() {
	db := database.GetDB()
	gameService = services.NewGameService(db)
	uploadService = services.NewUploadService(db)
}

// serviceError translates the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a storage fault: logged, returned as a
// generic 500, and guaranteed unapplied (the engine is transactional).
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidState):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrPayloadTooLarge):
		return c.Status(413).JSON(fiber.Map{"success": false, "error": err.Error()})
	default:
		log.Printf("storage error: %v", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Something went wrong. Please try again."})
	}
}
