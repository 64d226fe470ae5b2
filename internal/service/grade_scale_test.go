package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eti-mis/academics-api/internal/models"
)

func standardBands() []models.GradeBand {
	return []models.GradeBand{
		{Letter: "A", MinScore: 80, MaxScore: 100},
		{Letter: "A-", MinScore: 75, MaxScore: 79.9},
		{Letter: "B+", MinScore: 70, MaxScore: 74.9},
		{Letter: "B", MinScore: 65, MaxScore: 69.9},
		{Letter: "B-", MinScore: 60, MaxScore: 64.9},
		{Letter: "C+", MinScore: 55, MaxScore: 59.9},
		{Letter: "C", MinScore: 50, MaxScore: 54.9},
		{Letter: "D+", MinScore: 45, MaxScore: 49.9},
		{Letter: "D", MinScore: 40, MaxScore: 44.9},
		{Letter: "F", MinScore: 0, MaxScore: 39.9},
	}
}

func TestResolveLetterPicksFirstContainingBand(t *testing.T) {
	bands := standardBands()

	assert.Equal(t, "A", ResolveLetter(bands, 100))
	assert.Equal(t, "A", ResolveLetter(bands, 80))
	assert.Equal(t, "A-", ResolveLetter(bands, 79.9))
	assert.Equal(t, "B", ResolveLetter(bands, 65))
	assert.Equal(t, "F", ResolveLetter(bands, 0))
}

func TestResolveLetterGapFallsToNA(t *testing.T) {
	bands := standardBands()

	// 79.95 sits between A- (max 79.9) and A (min 80).
	assert.Equal(t, "N/A", ResolveLetter(bands, 79.95))
	assert.Equal(t, "N/A", ResolveLetter(nil, 50))
	assert.Equal(t, "N/A", ResolveLetter(bands, 101))
}

func TestGradePointScale(t *testing.T) {
	assert.Equal(t, 4.0, GradePoint("A"))
	assert.Equal(t, 3.7, GradePoint("A-"))
	assert.Equal(t, 3.5, GradePoint("B+"))
	assert.Equal(t, 3.0, GradePoint("B"))
	assert.Equal(t, 2.7, GradePoint("B-"))
	assert.Equal(t, 2.5, GradePoint("C+"))
	assert.Equal(t, 2.0, GradePoint("C"))
	assert.Equal(t, 1.5, GradePoint("D+"))
	assert.Equal(t, 1.0, GradePoint("D"))
	assert.Equal(t, 0.0, GradePoint("F"))
	assert.Equal(t, 0.0, GradePoint("N/A"))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 70.0, roundHalfUp(69.95, 1))
	assert.Equal(t, 69.9, roundHalfUp(69.94, 1))
	assert.Equal(t, 3.67, roundHalfUp(3.6666, 2))
	assert.Equal(t, 2.5, roundHalfUp(2.45, 1))
}
