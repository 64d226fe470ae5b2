package service

import (
	"math"

	"github.com/eti-mis/academics-api/internal/models"
)

// gradePoints maps letter grades onto the 4.0 scale used for GPA math.
// Unknown letters (including "N/A") carry zero points.
var gradePoints = map[string]float64{
	"A":  4.0,
	"A-": 3.7,
	"B+": 3.5,
	"B":  3.0,
	"B-": 2.7,
	"C+": 2.5,
	"C":  2.0,
	"D+": 1.5,
	"D":  1.0,
	"F":  0.0,
}

// GradePoint returns the 4.0-scale points for a letter grade.
func GradePoint(letter string) float64 {
	return gradePoints[letter]
}

// ResolveLetter walks bands ordered by descending minimum score and returns
// the first band whose inclusive range contains the score. A score outside
// every band resolves to "N/A" rather than failing, so a misconfigured band
// table produces visible placeholder grades instead of blocking grading.
func ResolveLetter(bands []models.GradeBand, score float64) string {
	for _, band := range bands {
		if score >= band.MinScore && score <= band.MaxScore {
			return band.Letter
		}
	}
	return "N/A"
}

// roundHalfUp rounds to the given decimal places with exact halves going up.
// Grading uses half-up rather than banker's rounding so a 69.95 becomes 70.0.
func roundHalfUp(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Floor(v*factor+0.5) / factor
}
