package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/la7jones92/spooky-race/database"
	"github.com/la7jones92/spooky-race/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testEntryCode = "GHO5T"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// A single connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newGame seeds the catalog and one team whose route follows catalog order, so
// route position n is always tasks[n-1].
func newGame(t *testing.T) (*GameService, *gorm.DB, []models.Task) {
	t.Helper()

	db := newTestDB(t)
	tasks, err := database.SeedTasks(db)
	if err != nil {
		t.Fatalf("seed tasks: %v", err)
	}
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	if _, err := database.CreateTeamWithRoute(db, testEntryCode, ids); err != nil {
		t.Fatalf("create team: %v", err)
	}
	return NewGameService(db), db, tasks
}

func register(t *testing.T, svc *GameService, name string) *RegisterResult {
	t.Helper()
	out, err := svc.RegisterTeam(testEntryCode, name)
	if err != nil {
		t.Fatalf("RegisterTeam: %v", err)
	}
	return out
}

func teamTaskRow(t *testing.T, db *gorm.DB, teamID, taskID string) *models.TeamTask {
	t.Helper()
	var tt models.TeamTask
	err := db.Preload("Task").Where("team_id = ? AND task_id = ?", teamID, taskID).First(&tt).Error
	if err != nil {
		t.Fatalf("load team task: %v", err)
	}
	return &tt
}

func TestRegisterTeam(t *testing.T) {
	svc, _, tasks := newGame(t)

	out := register(t, svc, "Ghost Busters")

	if out.Team.Name == nil || *out.Team.Name != "Ghost Busters" {
		t.Fatalf("team name = %v, want Ghost Busters", out.Team.Name)
	}
	if !out.Team.HasEntered {
		t.Fatal("team should be marked as entered")
	}
	if out.Team.StartedAt == nil {
		t.Fatal("startedAt should be set on first registration")
	}
	if out.Current.Status != models.TaskStatusCompleted {
		t.Fatalf("registration task status = %s, want COMPLETED", out.Current.Status)
	}
	if out.Current.PointsAwarded != tasks[0].Points {
		t.Fatalf("registration award = %d, want %d", out.Current.PointsAwarded, tasks[0].Points)
	}
	if out.Next == nil || out.Next.Status != models.TaskStatusUnlocked {
		t.Fatalf("second task should be unlocked, got %+v", out.Next)
	}
	if out.Next.Order != 2 {
		t.Fatalf("next order = %d, want 2", out.Next.Order)
	}
	if out.Totals.TotalPoints != tasks[0].Points {
		t.Fatalf("totalPoints = %d, want %d", out.Totals.TotalPoints, tasks[0].Points)
	}
}

func TestRegisterTeamValidation(t *testing.T) {
	svc, _, _ := newGame(t)

	if _, err := svc.RegisterTeam(testEntryCode, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.RegisterTeam("NOPE1", "Ghosts"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown entry code: err = %v, want ErrNotFound", err)
	}
}

func TestRegisterTeamAgainKeepsStartAndScore(t *testing.T) {
	svc, _, tasks := newGame(t)

	first := register(t, svc, "Ghost Busters")
	second := register(t, svc, "Ghoul Squad")

	if second.Team.Name == nil || *second.Team.Name != "Ghoul Squad" {
		t.Fatalf("rename was not applied: %v", second.Team.Name)
	}
	if !second.Team.StartedAt.Equal(*first.Team.StartedAt) {
		t.Fatalf("startedAt changed on re-registration: %v -> %v",
			first.Team.StartedAt, second.Team.StartedAt)
	}
	if second.Totals.TotalPoints != tasks[0].Points {
		t.Fatalf("re-registration re-awarded points: %d", second.Totals.TotalPoints)
	}
}

func TestRegisterTeamCaseInsensitiveEntryCode(t *testing.T) {
	svc, _, _ := newGame(t)

	if _, err := svc.RegisterTeam("gho5t", "Ghost Busters"); err != nil {
		t.Fatalf("lowercase entry code should resolve: %v", err)
	}
}

func TestSubmitCodeSuccess(t *testing.T) {
	svc, db, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	out, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "RIPPERSBLADE")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	if out.Result != models.SubmissionSuccess {
		t.Fatalf("result = %s, want SUCCESS", out.Result)
	}
	if out.Current.Status != models.TaskStatusCompleted {
		t.Fatalf("task status = %s, want COMPLETED", out.Current.Status)
	}
	if out.Current.PointsAwarded != tasks[1].Points {
		t.Fatalf("award = %d, want %d", out.Current.PointsAwarded, tasks[1].Points)
	}
	if out.Next == nil || out.Next.Status != models.TaskStatusUnlocked || out.Next.Order != 3 {
		t.Fatalf("third task should be unlocked, got %+v", out.Next)
	}
	want := tasks[0].Points + tasks[1].Points
	if out.Totals.TotalPoints != want {
		t.Fatalf("totalPoints = %d, want %d", out.Totals.TotalPoints, want)
	}

	var sub models.Submission
	if err := db.Where("team_task_id = ?", out.Current.ID).First(&sub).Error; err != nil {
		t.Fatalf("submission not logged: %v", err)
	}
	if sub.Result != models.SubmissionSuccess {
		t.Fatalf("logged result = %s, want SUCCESS", sub.Result)
	}
	if sub.MatchedTaskID == nil || *sub.MatchedTaskID != tasks[1].ID {
		t.Fatalf("matchedTaskId = %v, want %s", sub.MatchedTaskID, tasks[1].ID)
	}
}

func TestSubmitCodeAcceptsDecoratedInput(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	out, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "  the code is rippersblade! ")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if out.Result != models.SubmissionSuccess {
		t.Fatalf("result = %s, want SUCCESS for containing match", out.Result)
	}
}

func TestSubmitCodeWrongCode(t *testing.T) {
	svc, db, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	out, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "WRONGCODE")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if out.Result != models.SubmissionFailure {
		t.Fatalf("result = %s, want FAILURE", out.Result)
	}
	if out.Current.Status != models.TaskStatusUnlocked {
		t.Fatalf("task status = %s, want UNLOCKED after failed attempt", out.Current.Status)
	}
	if out.Totals.TotalPoints != tasks[0].Points {
		t.Fatalf("totals moved on failed attempt: %d", out.Totals.TotalPoints)
	}

	var sub models.Submission
	if err := db.Where("team_task_id = ?", out.Current.ID).First(&sub).Error; err != nil {
		t.Fatalf("failed attempt not logged: %v", err)
	}
	if sub.Result != models.SubmissionFailure {
		t.Fatalf("logged result = %s, want FAILURE", sub.Result)
	}
	if sub.ProvidedCode != "WRONGCODE" {
		t.Fatalf("logged code = %q", sub.ProvidedCode)
	}
	if sub.MatchedTaskID != nil {
		t.Fatalf("matchedTaskId = %v, want nil for a nonsense code", sub.MatchedTaskID)
	}
}

func TestSubmitCodeWrongTaskDiagnostic(t *testing.T) {
	svc, db, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	// GHOSTTRAIN belongs to the third task; submitting it against the second
	// fails but the log records which task it would have opened.
	out, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "GHOSTTRAIN")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if out.Result != models.SubmissionFailure {
		t.Fatalf("result = %s, want FAILURE", out.Result)
	}

	var sub models.Submission
	if err := db.Where("team_task_id = ?", out.Current.ID).First(&sub).Error; err != nil {
		t.Fatalf("submission not logged: %v", err)
	}
	if sub.MatchedTaskID == nil || *sub.MatchedTaskID != tasks[2].ID {
		t.Fatalf("matchedTaskId = %v, want %s", sub.MatchedTaskID, tasks[2].ID)
	}
}

func TestSubmitCodeCompletedTaskIsIdempotent(t *testing.T) {
	svc, db, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	if _, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "RIPPERSBLADE"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	out, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "RIPPERSBLADE")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if out.Result != models.SubmissionSuccess {
		t.Fatalf("replayed submit result = %s, want SUCCESS", out.Result)
	}
	want := tasks[0].Points + tasks[1].Points
	if out.Totals.TotalPoints != want {
		t.Fatalf("replayed submit changed totals: %d, want %d", out.Totals.TotalPoints, want)
	}

	var count int64
	if err := db.Model(&models.Submission{}).Where("team_task_id = ?", out.Current.ID).Count(&count).Error; err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if count != 2 {
		t.Fatalf("submission log rows = %d, want 2 (both attempts recorded)", count)
	}

	// A wrong code against a completed task is still a failure, not a replay.
	out, err = svc.SubmitCode(testEntryCode, tasks[1].ID, "WRONGCODE")
	if err != nil {
		t.Fatalf("wrong code on completed task: %v", err)
	}
	if out.Result != models.SubmissionFailure {
		t.Fatalf("result = %s, want FAILURE", out.Result)
	}
}

func TestSubmitCodeLockedTaskFails(t *testing.T) {
	svc, db, tasks := newGame(t)
	out := register(t, svc, "Ghost Busters")

	// The third task is still locked; even its own code is refused.
	res, err := svc.SubmitCode(testEntryCode, tasks[2].ID, "GHOSTTRAIN")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if res.Result != models.SubmissionFailure {
		t.Fatalf("result = %s, want FAILURE on a locked task", res.Result)
	}

	tt := teamTaskRow(t, db, out.Team.ID, tasks[2].ID)
	if tt.Status != models.TaskStatusLocked {
		t.Fatalf("locked task moved to %s", tt.Status)
	}
}

func TestSubmitCodeRegistrationTaskRejected(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	// The registration task has no completion code to check against.
	if _, err := svc.SubmitCode(testEntryCode, tasks[0].ID, "ANYTHING"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSubmitCodeUnknownTask(t *testing.T) {
	svc, _, _ := newGame(t)
	register(t, svc, "Ghost Busters")

	if _, err := svc.SubmitCode(testEntryCode, "no-such-task", "CODE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUseHint(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	out, err := svc.UseHint(testEntryCode, tasks[1].ID)
	if err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	if out.Hint != *tasks[1].Hint {
		t.Fatalf("hint = %q, want %q", out.Hint, *tasks[1].Hint)
	}
	if out.HintPointsPenalty != tasks[1].HintPointsPenalty {
		t.Fatalf("penalty = %d, want %d", out.HintPointsPenalty, tasks[1].HintPointsPenalty)
	}
	if !out.TeamTask.HintUsed {
		t.Fatal("hintUsed should be set")
	}
	if out.Totals.TotalHintPenalties != tasks[1].HintPointsPenalty {
		t.Fatalf("totalHintPenalties = %d, want %d",
			out.Totals.TotalHintPenalties, tasks[1].HintPointsPenalty)
	}

	// Asking again reveals the same hint without charging twice.
	again, err := svc.UseHint(testEntryCode, tasks[1].ID)
	if err != nil {
		t.Fatalf("second UseHint: %v", err)
	}
	if again.Totals.TotalHintPenalties != tasks[1].HintPointsPenalty {
		t.Fatalf("second hint charged again: %d", again.Totals.TotalHintPenalties)
	}

	// Completing after a hint awards points minus the penalty.
	sub, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "RIPPERSBLADE")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	wantAward := tasks[1].Points - tasks[1].HintPointsPenalty
	if sub.Current.PointsAwarded != wantAward {
		t.Fatalf("award after hint = %d, want %d", sub.Current.PointsAwarded, wantAward)
	}
	wantTotal := tasks[0].Points + wantAward
	if sub.Totals.TotalPoints != wantTotal {
		t.Fatalf("totalPoints = %d, want %d", sub.Totals.TotalPoints, wantTotal)
	}
}

func TestUseHintInvalidStates(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	// Registration task has no hint configured.
	if _, err := svc.UseHint(testEntryCode, tasks[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("no hint: err = %v, want ErrInvalidState", err)
	}
	// The third task is still locked.
	if _, err := svc.UseHint(testEntryCode, tasks[2].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("locked task: err = %v, want ErrInvalidState", err)
	}
}

func TestSkipTask(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	// Taking the hint first does not refund the penalty when skipping.
	if _, err := svc.UseHint(testEntryCode, tasks[1].ID); err != nil {
		t.Fatalf("UseHint: %v", err)
	}

	out, err := svc.SkipTask(testEntryCode, tasks[1].ID)
	if err != nil {
		t.Fatalf("SkipTask: %v", err)
	}
	if out.Current.Status != models.TaskStatusSkipped {
		t.Fatalf("status = %s, want SKIPPED", out.Current.Status)
	}
	if out.Current.PointsAwarded != 0 {
		t.Fatalf("skipped task awarded %d points", out.Current.PointsAwarded)
	}
	if out.Next == nil || out.Next.Status != models.TaskStatusUnlocked || out.Next.Order != 3 {
		t.Fatalf("next task should be unlocked, got %+v", out.Next)
	}

	team, err := svc.GetTeamByEntryCode(testEntryCode)
	if err != nil {
		t.Fatalf("GetTeamByEntryCode: %v", err)
	}
	if team.TotalPoints != tasks[0].Points {
		t.Fatalf("totalPoints = %d, want %d", team.TotalPoints, tasks[0].Points)
	}
	if team.TotalHintPenalties != tasks[1].HintPointsPenalty {
		t.Fatalf("skip refunded the hint penalty: %d", team.TotalHintPenalties)
	}

	// Skipping again is a harmless no-op.
	again, err := svc.SkipTask(testEntryCode, tasks[1].ID)
	if err != nil {
		t.Fatalf("second SkipTask: %v", err)
	}
	if again.Current.Status != models.TaskStatusSkipped {
		t.Fatalf("second skip status = %s", again.Current.Status)
	}
}

func TestSkipTaskInvalidStates(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	// Registration task already completed.
	if _, err := svc.SkipTask(testEntryCode, tasks[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("completed task: err = %v, want ErrInvalidState", err)
	}
	// Third task still locked.
	if _, err := svc.SkipTask(testEntryCode, tasks[2].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("locked task: err = %v, want ErrInvalidState", err)
	}
}

func TestSubmitBonusPhoto(t *testing.T) {
	svc, db, tasks := newGame(t)
	out := register(t, svc, "Ghost Busters")

	photo := []byte("fake-jpeg-bytes")
	res, err := svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "team.jpg", "image/jpeg", photo)
	if err != nil {
		t.Fatalf("SubmitBonusPhoto: %v", err)
	}
	if res.TeamTask.BonusAwarded != tasks[0].BonusPoints {
		t.Fatalf("bonusAwarded = %d, want %d", res.TeamTask.BonusAwarded, tasks[0].BonusPoints)
	}
	if res.TeamTask.BonusPhotoID == nil {
		t.Fatal("bonusPhotoId should reference the upload")
	}
	if res.Totals.TotalBonusPoints != tasks[0].BonusPoints {
		t.Fatalf("totalBonusPoints = %d, want %d", res.Totals.TotalBonusPoints, tasks[0].BonusPoints)
	}

	var upload models.Upload
	if err := db.First(&upload, "id = ?", *res.TeamTask.BonusPhotoID).Error; err != nil {
		t.Fatalf("upload row missing: %v", err)
	}
	if upload.SizeBytes != int64(len(photo)) {
		t.Fatalf("sizeBytes = %d, want %d", upload.SizeBytes, len(photo))
	}
	if upload.ContentType != "image/jpeg" {
		t.Fatalf("contentType = %q", upload.ContentType)
	}

	// A second photo for the same task does not re-award or replace.
	res2, err := svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "again.jpg", "image/jpeg", photo)
	if err != nil {
		t.Fatalf("second SubmitBonusPhoto: %v", err)
	}
	if res2.Totals.TotalBonusPoints != tasks[0].BonusPoints {
		t.Fatalf("second photo re-awarded: %d", res2.Totals.TotalBonusPoints)
	}
	if *res2.TeamTask.BonusPhotoID != *res.TeamTask.BonusPhotoID {
		t.Fatal("second photo replaced the original upload")
	}

	var count int64
	if err := db.Model(&models.Upload{}).Where("team_id = ?", out.Team.ID).Count(&count).Error; err != nil {
		t.Fatalf("count uploads: %v", err)
	}
	if count != 1 {
		t.Fatalf("upload rows = %d, want 1", count)
	}
}

func TestSubmitBonusPhotoValidation(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	photo := []byte("bytes")

	// Second task is unlocked, not completed.
	_, err := svc.SubmitBonusPhoto(testEntryCode, tasks[1].ID, "x.jpg", "image/jpeg", photo)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("uncompleted task: err = %v, want ErrInvalidState", err)
	}

	_, err = svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "x.jpg", "", photo)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing content type: err = %v, want ErrInvalidInput", err)
	}

	_, err = svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "x.jpg", "image/jpeg", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty data: err = %v, want ErrInvalidInput", err)
	}

	huge := []byte(strings.Repeat("x", MaxBonusPhotoBytes+1))
	_, err = svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "x.jpg", "image/jpeg", huge)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("oversized photo: err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestGetTeamTasksOrdering(t *testing.T) {
	svc, _, tasks := newGame(t)

	tts, err := svc.GetTeamTasks(testEntryCode)
	if err != nil {
		t.Fatalf("GetTeamTasks: %v", err)
	}
	if len(tts) != len(tasks) {
		t.Fatalf("rows = %d, want %d", len(tts), len(tasks))
	}
	for i, tt := range tts {
		if tt.Order != i+1 {
			t.Fatalf("position %d has order %d", i, tt.Order)
		}
		if tt.Task == nil {
			t.Fatalf("position %d missing preloaded task", i)
		}
	}
	if tts[0].Status != models.TaskStatusUnlocked {
		t.Fatalf("first task status = %s, want UNLOCKED before registration", tts[0].Status)
	}
}

// countByStatus tallies one team's route by status.
func countByStatus(t *testing.T, db *gorm.DB, teamID string) map[models.TaskStatus]int {
	t.Helper()
	var tts []models.TeamTask
	if err := db.Where("team_id = ?", teamID).Find(&tts).Error; err != nil {
		t.Fatalf("load route: %v", err)
	}
	counts := make(map[models.TaskStatus]int)
	for _, tt := range tts {
		counts[tt.Status]++
	}
	return counts
}

func TestFullRouteCompletion(t *testing.T) {
	svc, db, tasks := newGame(t)
	out := register(t, svc, "Ghost Busters")
	teamID := out.Team.ID

	wantPoints := tasks[0].Points
	for i := 1; i < len(tasks); i++ {
		// Exactly one task open at any point mid-race.
		counts := countByStatus(t, db, teamID)
		if counts[models.TaskStatusUnlocked] != 1 {
			t.Fatalf("after %d tasks: %d unlocked, want 1", i, counts[models.TaskStatusUnlocked])
		}

		res, err := svc.SubmitCode(testEntryCode, tasks[i].ID, *tasks[i].CompletionCode)
		if err != nil {
			t.Fatalf("submit task %d: %v", i+1, err)
		}
		if res.Result != models.SubmissionSuccess {
			t.Fatalf("submit task %d: result = %s", i+1, res.Result)
		}
		wantPoints += tasks[i].Points
		if res.Totals.TotalPoints != wantPoints {
			t.Fatalf("after task %d: totalPoints = %d, want %d", i+1, res.Totals.TotalPoints, wantPoints)
		}

		team, err := svc.GetTeamByEntryCode(testEntryCode)
		if err != nil {
			t.Fatalf("GetTeamByEntryCode: %v", err)
		}
		if i < len(tasks)-1 && team.FinishedAt != nil {
			t.Fatalf("finishedAt set after only %d tasks", i+1)
		}
		if i == len(tasks)-1 && team.FinishedAt == nil {
			t.Fatal("finishedAt not set after the last task resolved")
		}
	}

	counts := countByStatus(t, db, teamID)
	if counts[models.TaskStatusCompleted] != len(tasks) {
		t.Fatalf("completed = %d, want %d", counts[models.TaskStatusCompleted], len(tasks))
	}
	if counts[models.TaskStatusUnlocked] != 0 || counts[models.TaskStatusLocked] != 0 {
		t.Fatalf("leftover open tasks: %+v", counts)
	}
}

func TestSkippingFinalTaskFinishesRace(t *testing.T) {
	svc, _, tasks := newGame(t)
	register(t, svc, "Ghost Busters")

	for i := 1; i < len(tasks)-1; i++ {
		if _, err := svc.SubmitCode(testEntryCode, tasks[i].ID, *tasks[i].CompletionCode); err != nil {
			t.Fatalf("submit task %d: %v", i+1, err)
		}
	}

	last := tasks[len(tasks)-1]
	out, err := svc.SkipTask(testEntryCode, last.ID)
	if err != nil {
		t.Fatalf("skip final task: %v", err)
	}
	if out.Next != nil {
		t.Fatalf("next after final task = %+v, want nil", out.Next)
	}

	team, err := svc.GetTeamByEntryCode(testEntryCode)
	if err != nil {
		t.Fatalf("GetTeamByEntryCode: %v", err)
	}
	if team.FinishedAt == nil {
		t.Fatal("skipping the final task should finish the race")
	}
}

// TestTotalsAlwaysMatchRows drives a mixed run and checks the denormalized
// counters against a fresh recomputation from the rows after every step.
func TestTotalsAlwaysMatchRows(t *testing.T) {
	svc, db, tasks := newGame(t)
	out := register(t, svc, "Ghost Busters")
	teamID := out.Team.ID

	assertTotals := func(step string) {
		var tts []models.TeamTask
		if err := db.Preload("Task").Where("team_id = ?", teamID).Find(&tts).Error; err != nil {
			t.Fatalf("%s: load route: %v", step, err)
		}
		var points, bonus, penalties int
		for _, tt := range tts {
			if tt.Status == models.TaskStatusCompleted {
				points += tt.PointsAwarded
			}
			bonus += tt.BonusAwarded
			if tt.HintUsed {
				penalties += tt.Task.HintPointsPenalty
			}
		}
		team, err := svc.GetTeamByEntryCode(testEntryCode)
		if err != nil {
			t.Fatalf("%s: load team: %v", step, err)
		}
		if team.TotalPoints != points || team.TotalBonusPoints != bonus || team.TotalHintPenalties != penalties {
			t.Fatalf("%s: totals (%d,%d,%d) diverge from rows (%d,%d,%d)", step,
				team.TotalPoints, team.TotalBonusPoints, team.TotalHintPenalties,
				points, bonus, penalties)
		}
	}

	assertTotals("after register")

	if _, err := svc.UseHint(testEntryCode, tasks[1].ID); err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	assertTotals("after hint")

	if _, err := svc.SubmitCode(testEntryCode, tasks[1].ID, "RIPPERSBLADE"); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	assertTotals("after hinted completion")

	if _, err := svc.UseHint(testEntryCode, tasks[2].ID); err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	if _, err := svc.SkipTask(testEntryCode, tasks[2].ID); err != nil {
		t.Fatalf("SkipTask: %v", err)
	}
	assertTotals("after hinted skip")

	if _, err := svc.SubmitBonusPhoto(testEntryCode, tasks[0].ID, "p.jpg", "image/jpeg", []byte("img")); err != nil {
		t.Fatalf("SubmitBonusPhoto: %v", err)
	}
	assertTotals("after bonus photo")
}
