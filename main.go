// main.go - Spooky Race server
package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/la7jones92/spooky-race/database"
	"github.com/la7jones92/spooky-race/handlers"
	"github.com/la7jones92/spooky-race/handlers/admin"
	"github.com/la7jones92/spooky-race/middleware"
	"github.com/la7jones92/spooky-race/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Initialize database (connects and migrates)
	database.InitDB()
	defer database.CloseDB()

	handlers.InitHandlers()
	admin.InitAdminHandlers()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		// 5 MB photo ceiling plus base64 and JSON overhead.
		BodyLimit:    8 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := utils.Getenv("CORS_ORIGINS", "http://localhost:3000")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.RateLimit())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// API routes
	api := app.Group("/api")

	api.Get("/tasks", handlers.GetTasks)

	api.Get("/team", handlers.GetTeam)
	api.Post("/team/register", handlers.RegisterTeam)

	api.Get("/teamTasks", handlers.GetTeamTasks)
	api.Post("/teamTasks/submit", middleware.SubmitRateLimit(), handlers.SubmitCode)
	api.Post("/teamTasks/skip", handlers.SkipTask)
	api.Post("/teamTasks/hint", handlers.UseHint)
	api.Post("/teamTasks/bonusPhoto", handlers.SubmitBonusPhoto)

	api.Get("/uploads/:id", handlers.GetUpload)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuthMiddleware)
	adminProtected.Get("/verify", admin.VerifyToken)
	adminProtected.Get("/teams", admin.GetTeams)
	adminProtected.Get("/teams/:id", admin.GetTeam)
	adminProtected.Post("/teams/:id/reset", admin.ResetTeam)

	// Built client (SPA) with fallback for any non-API route
	clientDist := utils.Getenv("CLIENT_DIST", "./client/dist")
	app.Static("/", clientDist)
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api") || c.Path() == "/health" {
			return c.Next()
		}
		return c.SendFile(clientDist + "/index.html")
	})

	port := utils.Getenv("PORT", "8080")
	log.Printf("🎃 Spooky Race server starting on port %s", port)
	log.Printf("📊 Environment: %s", utils.Getenv("APP_ENV", "development"))

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	if os.Getenv("ADMIN_PASSWORD_HASH") == "" {
		log.Println("WARNING: ADMIN_PASSWORD_HASH not set - admin login is disabled")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
