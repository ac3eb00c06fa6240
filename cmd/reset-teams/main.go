// cmd/reset-teams - Reset team(s) back to initial state
//
// Usage:
//
//	go run ./cmd/reset-teams TEAMCODE1 TEAMCODE2 ...
//	go run ./cmd/reset-teams --all
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/la7jones92/spooky-race/database"
	"github.com/la7jones92/spooky-race/services"

	"github.com/joho/godotenv"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("Usage:")
		fmt.Println("  reset-teams TEAMCODE1 TEAMCODE2 ...")
		fmt.Println("  reset-teams --all")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	database.InitDB()
	defer database.CloseDB()
	adminService := services.NewAdminService(database.GetDB())

	codes := args
	if args[0] == "--all" {
		var err error
		codes, err = adminService.ListEntryCodes()
		if err != nil {
			log.Fatalf("Failed to list teams: %v", err)
		}
		if len(codes) == 0 {
			log.Fatal("No teams found in database")
		}
		log.Printf("🔄 Resetting ALL %d team(s)...", len(codes))
	}

	failed := 0
	for _, code := range codes {
		if err := adminService.ResetTeamByEntryCode(code); err != nil {
			log.Printf("❌ %s: %v", code, err)
			failed++
			continue
		}
		log.Printf("✅ Reset team %s", code)
	}

	if failed > 0 {
		os.Exit(1)
	}
	log.Printf("✅ Reset complete for %d team(s)", len(codes))
}
