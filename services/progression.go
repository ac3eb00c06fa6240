// services/progression.go - Pure progression/scoring rules
//
// The decision rules of the game live here as plain functions so they can be
// reasoned about (and tested) without a database. GameService applies them
// inside transactions.
package services

import "strings"

// MaxBonusPhotoBytes is the ceiling for a bonus photo upload (5 MB).
const MaxBonusPhotoBytes = 5 << 20

// AwardedPoints is the base award frozen onto a TeamTask at completion time:
// the task's points minus the hint penalty when a hint was used, floored at 0.
func AwardedPoints(points, hintPenalty int, hintUsed bool) int {
	awarded := points
	if hintUsed {
		awarded -= hintPenalty
	}
	if awarded < 0 {
		return 0
	}
	return awarded
}

// NormalizeCode upper-cases and trims a player-typed code or entry code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CodeMatches reports whether a submitted completion code is accepted.
//
// Policy: case-insensitive containment - the submission matches when it
// contains the expected code anywhere, so "THE ANSWER IS GHOSTTRAIN!" passes
// for GHOSTTRAIN. Deliberately lenient toward decorated answers; a task with
// no expected code never matches anything.
func CodeMatches(provided, expected string) bool {
	want := NormalizeCode(expected)
	if want == "" {
		return false
	}
	return strings.Contains(NormalizeCode(provided), want)
}
