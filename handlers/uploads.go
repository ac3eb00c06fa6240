// handlers/uploads.go - Stored photo serving
package handlers

import "github.com/gofiber/fiber/v2"

// GetUpload streams a stored bonus photo back with its original content type.
// GET /api/uploads/:id
func GetUpload(c *fiber.Ctx) error {
	upload, err := uploadService.GetUpload(c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	c.Set(fiber.HeaderContentType, upload.ContentType)
	return c.Send(upload.Data)
}
