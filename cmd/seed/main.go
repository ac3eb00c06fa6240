// cmd/seed - Seed the task catalog and teams
//
// Usage:
//
//	go run ./cmd/seed                 # seeds catalog + default entry codes
//	go run ./cmd/seed CODE1 CODE2 ... # seeds catalog + the given codes
//
// Safe to rerun: the catalog is only inserted when empty, existing teams are
// reused and their routes rebuilt (fixed first task, remainder shuffled).
package main

import (
	"log"
	"os"

	"github.com/la7jones92/spooky-race/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	codes := os.Args[1:]
	if len(codes) == 0 {
		codes = database.DefaultEntryCodes
	}

	tasks, err := database.SeedTasks(db)
	if err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}
	log.Printf("✅ Task catalog ready (%d tasks)", len(tasks))

	if err := database.SeedTeams(db, codes); err != nil {
		log.Fatalf("Failed to seed teams: %v", err)
	}
	log.Printf("✅ Seeded %d team(s)", len(codes))
}
