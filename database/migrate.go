// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"github.com/la7jones92/spooky-race/models"

	"gorm.io/gorm"
)

// Migrate creates/updates all race tables on the given handle. It is shared
// by InitDB and the cmd/ tools and test fixtures.
func Migrate(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Task{},
		&models.Team{},
		&models.Upload{},
		&models.TeamTask{},
		&models.Submission{},
	); err != nil {
		return err
	}

	createIndexes(db)

	log.Println("✅ Migrations completed")
	return nil
}

// createIndexes adds the lookup indexes AutoMigrate does not cover.
func createIndexes(db *gorm.DB) {
	// Entry codes are matched case-insensitively on every request.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_teams_entry_code_upper ON teams(UPPER(entry_code))")

	// Admin dashboard orders by progress and latest activity.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_team_tasks_status ON team_tasks(team_id, status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_submissions_team_created ON submissions(team_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_submissions_team_task ON submissions(team_task_id)")
}
