// database/seed.go - Task catalog and team seeding
package database

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/la7jones92/spooky-race/models"

	"gorm.io/gorm"
)

// DefaultEntryCodes are the printed team codes handed out on race night.
var DefaultEntryCodes = []string{
	"GHO5T",
	"HEX9",
	"BOO7",
	"R1PPR",
	"PH4NT",
	"C0FFN",
	"W1TCH",
	"SHDW8",
	"SP00K",
	"GR1M",
}

func strPtr(s string) *string { return &s }

// taskCatalog is the ten-stop route. Task 1 is the registration task: it has
// no completion code and completes when the team registers its name.
func taskCatalog() []models.Task {
	return []models.Task{
		{
			Title:                 "👻 Name of the Night",
			Description:           "Register your team and discover the ghostly secret",
			DetailedDescription:   strPtr("Welcome to the Versent Spooky Race! To begin your Halloween adventure, first register your team with a creative, spooky name. Then discover the mysterious ghostly name that haunts this place. Look for clues left behind by spirits of the past - the answer lies where shadows meet moonlight."),
			BonusPhotoDescription: strPtr("Take a spooky team photo at the starting location with everyone making their best ghost faces!"),
			Points:                10,
			BonusPoints:           5,
			Order:                 1,
		},
		{
			Title:                 "⚔️ Ripper's Reach",
			Description:           "Find the legendary blade of the notorious figure",
			DetailedDescription:   strPtr("Locate the infamous weapon that once belonged to a dark historical figure. This task will test your knowledge of local legends and your ability to follow cryptic directions through the streets."),
			BonusPhotoDescription: strPtr("Photograph the historical marker or plaque related to this dark figure's story"),
			Points:                15,
			BonusPoints:           10,
			Hint:                  strPtr("Look for the infamous knife display near the old courthouse area"),
			HintPointsPenalty:     5,
			CompletionCode:        strPtr("RIPPERSBLADE"),
			Order:                 2,
		},
		{
			Title:                 "🚂 Platform Poltergeist",
			Description:           "Encounter the restless spirit at the station",
			DetailedDescription:   strPtr("Visit the old railway platform where a ghostly presence is said to linger. Look for signs of supernatural activity and document your findings. The poltergeist only appears to those who know where to look."),
			BonusPhotoDescription: strPtr("Capture a photo of the old railway platform with your team recreating a Victorian-era train waiting pose"),
			Points:                20,
			BonusPoints:           10,
			Hint:                  strPtr("The spirit haunts Platform 1 at Flinders Street Station"),
			HintPointsPenalty:     7,
			CompletionCode:        strPtr("GHOSTTRAIN"),
			Order:                 3,
		},
		{
			Title:                 "🍻 The Slashed Secret",
			Description:           "Uncover the hidden truth in the tavern",
			DetailedDescription:   strPtr("Head to the historic pub where a dark secret has been buried for decades. Search for clues among the old bottles and beneath the ancient floorboards. The truth has been slashed away but not forgotten."),
			BonusPhotoDescription: strPtr("Take a photo of your team toasting with drinks (non-alcoholic is fine) at the historic tavern location"),
			Points:                15,
			BonusPoints:           10,
			Hint:                  strPtr("Check the old Mitre Tavern on Bank Place"),
			HintPointsPenalty:     5,
			CompletionCode:        strPtr("SLASHEDSECRET"),
			Order:                 4,
		},
		{
			Title:                 "🎭 The Final Bow",
			Description:           "Witness the last performance of the phantom actor",
			DetailedDescription:   strPtr("Find the old theater where a legendary performer met their tragic end. Look for traces of their final show and the dramatic conclusion that still echoes through the halls. The curtain never truly fell."),
			BonusPhotoDescription: strPtr("Stage a dramatic theatrical pose with your team in front of the old theater, recreating a final bow scene"),
			Points:                25,
			BonusPoints:           15,
			Hint:                  strPtr("The Princess Theatre on Spring Street holds the tragic tale"),
			HintPointsPenalty:     8,
			CompletionCode:        strPtr("FINALCURTAIN"),
			Order:                 5,
		},
		{
			Title:                 "🏢 Count of the Condemned",
			Description:           "Tally the souls trapped in the fortress",
			DetailedDescription:   strPtr("Visit the imposing structure where many met their fate. Count the markers of those who never left and piece together their stories. Each soul has left a trace for those brave enough to look."),
			BonusPhotoDescription: strPtr("Photograph the imposing fortress structure with your team looking appropriately solemn and respectful"),
			Points:                20,
			BonusPoints:           10,
			Hint:                  strPtr("Look for the Old Melbourne Gaol on Russell Street"),
			HintPointsPenalty:     6,
			CompletionCode:        strPtr("CONDEMNED99"),
			Order:                 6,
		},
		{
			Title:                 "🛒 Underfoot Ancestors",
			Description:           "Discover what lies beneath the market grounds",
			DetailedDescription:   strPtr("Explore the area beneath the old market where ancient secrets are buried. Look for signs of those who came before and the stories written in stone beneath your feet. History runs deep in these grounds."),
			BonusPhotoDescription: strPtr("Take a photo of any historical markers, plaques, or stone inscriptions you find beneath the market area"),
			Points:                30,
			BonusPoints:           15,
			Hint:                  strPtr("The Queen Victoria Market sits atop the old Melbourne Cemetery"),
			HintPointsPenalty:     10,
			CompletionCode:        strPtr("ANCESTORS"),
			Order:                 7,
		},
		{
			Title:                 "🚢 Captain on Collins",
			Description:           "Follow the maritime ghost's final voyage",
			DetailedDescription:   strPtr("Trace the path of the phantom captain who still walks Collins Street. Find the nautical clues he left behind and discover where his final journey ended. The captain's spirit guards his greatest treasure."),
			BonusPhotoDescription: strPtr("Capture your team in a nautical-themed pose on Collins Street, with someone acting as the phantom captain"),
			Points:                20,
			BonusPoints:           10,
			Hint:                  strPtr("Follow Collins Street to the old shipping district near the Yarra"),
			HintPointsPenalty:     6,
			CompletionCode:        strPtr("CAPTAINSCOIN"),
			Order:                 8,
		},
		{
			Title:                 "🚔 Cells to Ales",
			Description:           "From lockup to liberation, follow the prisoner's path",
			DetailedDescription:   strPtr("Trace the journey from the old city jail to the freedom of the local alehouse. Follow the path taken by countless souls who moved from confinement to celebration. Find where justice met jubilation in Melbourne's dark history."),
			BonusPhotoDescription: strPtr("Document the journey with a photo showing both the old jail location and the alehouse destination in one creative shot"),
			Points:                25,
			BonusPoints:           15,
			Hint:                  strPtr("Start at the Old Melbourne Gaol and end at Young & Jackson's"),
			HintPointsPenalty:     8,
			CompletionCode:        strPtr("CELLSTOALES"),
			Order:                 9,
		},
		{
			Title:                 "🍺 Last Orders with the Lady in Black",
			Description:           "Meet the mysterious woman who never left the bar",
			DetailedDescription:   strPtr("Complete your journey at the historic watering hole where the Lady in Black still waits for her last drink. Find her favorite spot and leave an offering. She'll reveal the final secret to those who show proper respect."),
			BonusPhotoDescription: strPtr("Take a respectful final photo of your team raising a glass to the Lady in Black at her favorite spot"),
			Points:                35,
			BonusPoints:           20,
			Hint:                  strPtr("The Croft Institute on Croft Alley holds her spirit"),
			HintPointsPenalty:     12,
			CompletionCode:        strPtr("LADYINBLACK"),
			Order:                 10,
		},
	}
}

// SeedTasks inserts the task catalog if the tasks table is empty and returns
// the catalog ordered by position. Safe to call repeatedly.
func SeedTasks(db *gorm.DB) ([]models.Task, error) {
	var count int64
	if err := db.Model(&models.Task{}).Count(&count).Error; err != nil {
		return nil, err
	}

	if count == 0 {
		catalog := taskCatalog()
		if err := db.Create(&catalog).Error; err != nil {
			return nil, err
		}
	}

	var tasks []models.Task
	if err := db.Order("task_order ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTeamWithRoute creates (or rebuilds) a team and its full TeamTask
// sequence in one transaction. taskIDs is the team's route in play order; the
// first entry is unlocked immediately, the rest start locked. An existing team
// with the same entry code is reused and its rows rebuilt, which makes seeding
// idempotent.
func CreateTeamWithRoute(db *gorm.DB, entryCode string, taskIDs []string) (*models.Team, error) {
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("team %s: empty route", entryCode)
	}

	var team models.Team
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("UPPER(entry_code) = UPPER(?)", entryCode).First(&team).Error
		if err == gorm.ErrRecordNotFound {
			team = models.Team{EntryCode: entryCode}
			err = tx.Create(&team).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamTask{}).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, taskID := range taskIDs {
			tt := models.TeamTask{
				TeamID: team.ID,
				TaskID: taskID,
				Order:  i + 1,
				Status: models.TaskStatusLocked,
			}
			if i == 0 {
				tt.Status = models.TaskStatusUnlocked
				tt.UnlockedAt = &now
			}
			if err := tx.Create(&tt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// SeedTeams creates one team per entry code. Every route starts with the
// registration task; the remaining tasks are shuffled independently per team
// so teams fan out across the city instead of bunching at the same stop.
func SeedTeams(db *gorm.DB, entryCodes []string) error {
	tasks, err := SeedTasks(db)
	if err != nil {
		return err
	}

	first := tasks[0]
	if first.Order != 1 {
		return fmt.Errorf("catalog has no task at order 1")
	}
	rest := tasks[1:]

	for _, code := range entryCodes {
		shuffled := make([]models.Task, len(rest))
		copy(shuffled, rest)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		route := make([]string, 0, len(tasks))
		route = append(route, first.ID)
		for _, t := range shuffled {
			route = append(route, t.ID)
		}

		if _, err := CreateTeamWithRoute(db, code, route); err != nil {
			return err
		}
	}
	return nil
}
