package service

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"unicode"
)

// CourseCodes generates offering codes of the form <initials><number>, where
// the number sits in the level's hundred range (a 200-level course gets
// 200..299). Satisfies the transition repository's code generator.
type CourseCodes struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCourseCodes constructs a generator seeded from the given source. A zero
// seed falls back to a fixed seed, which tests rely on.
func NewCourseCodes(seed int64) *CourseCodes {
	if seed == 0 {
		seed = 1
	}
	return &CourseCodes{rng: rand.New(rand.NewSource(seed))}
}

// Random returns a fresh candidate code for the title at the level.
func (c *CourseCodes) Random(title string, levelNumber int) string {
	c.mu.Lock()
	offset := c.rng.Intn(100)
	c.mu.Unlock()
	return fmt.Sprintf("%s%d", courseInitials(title), levelNumber+offset)
}

// Deterministic returns a stable code derived from the title, level and salt.
// Used once the random attempts are exhausted so a transition run always
// terminates with some code.
func (c *CourseCodes) Deterministic(title string, levelNumber int, salt string) string {
	h := fnv.New32a()
	h.Write([]byte(title)) //nolint:errcheck
	h.Write([]byte(salt))  //nolint:errcheck
	offset := int(h.Sum32() % 100)
	return fmt.Sprintf("%s%d", courseInitials(title), levelNumber+offset)
}

// courseInitials takes the first letter of each word in the title, uppercased.
// "Introduction to Computing" becomes "ITC". Titles with no letters at all
// fall back to "C".
func courseInitials(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	if b.Len() == 0 {
		return "C"
	}
	return b.String()
}
