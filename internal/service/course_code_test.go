package service

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseInitials(t *testing.T) {
	assert.Equal(t, "ITC", courseInitials("Introduction to Computing"))
	assert.Equal(t, "DSA", courseInitials("Data Structures & Algorithms"))
	assert.Equal(t, "C", courseInitials("101"))
	assert.Equal(t, "C", courseInitials(""))
}

func TestRandomCodeStaysInLevelRange(t *testing.T) {
	codes := NewCourseCodes(42)
	for i := 0; i < 50; i++ {
		code := codes.Random("Introduction to Computing", 200)
		require.True(t, strings.HasPrefix(code, "ITC"))
		number, err := strconv.Atoi(strings.TrimPrefix(code, "ITC"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, number, 200)
		assert.LessOrEqual(t, number, 299)
	}
}

func TestDeterministicCodeIsStable(t *testing.T) {
	codes := NewCourseCodes(1)

	first := codes.Deterministic("Introduction to Computing", 100, "sem-1")
	second := codes.Deterministic("Introduction to Computing", 100, "sem-1")
	assert.Equal(t, first, second)

	number, err := strconv.Atoi(strings.TrimPrefix(first, "ITC"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, number, 100)
	assert.LessOrEqual(t, number, 199)
}
