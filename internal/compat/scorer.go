// Package compat implements the compatibility scoring function.
//
// Score is pure and deterministic: no I/O, no clock reads (the caller
// supplies "now" for the tenure factor), no randomness. Factors are
// evaluated in a fixed order and each appends its reason as it fires, so
// the reasons list always follows factor order 1-5.
package compat

import (
	"fmt"
	"strings"
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// MaxScore caps the summed factor contributions.
const MaxScore = 100

// minTokenLen excludes short filler words from description overlap.
const minTokenLen = 3

// Score computes the compatibility between two agents as of now.
// Partially populated agents are safe: defaulting happens at the source
// boundary, and every factor tolerates zero values.
func Score(a, b domain.Agent, now time.Time) domain.Compatibility {
	score := 0
	reasons := []string{}

	// Factor 1: karma proximity.
	switch d := absInt(a.Karma - b.Karma); {
	case d < 50:
		score += 25
		reasons = append(reasons, "Similar karma energy")
	case d < 200:
		score += 15
		reasons = append(reasons, "Compatible engagement")
	default:
		score += 5
	}

	// Factor 2: posting-activity proximity.
	switch d := absInt(a.Stats.Posts - b.Stats.Posts); {
	case d < 20:
		score += 20
		reasons = append(reasons, "Same posting rhythm")
	case d < 100:
		score += 10
		reasons = append(reasons, "Compatible activity")
	}

	// Factor 3: tenure proximity.
	switch d := absDuration(a.Age(now) - b.Age(now)); {
	case d < 3*24*time.Hour:
		score += 20
		reasons = append(reasons, "Joined around the same time")
	case d < 7*24*time.Hour:
		score += 10
		reasons = append(reasons, "Similar vintage")
	}

	// Factor 4: verification bonus.
	if a.IsClaimed && b.IsClaimed {
		score += 15
		reasons = append(reasons, "Both verified ✓")
	}

	// Factor 5: description token overlap.
	switch k := sharedTokens(a.Description, b.Description); {
	case k >= 3:
		score += 20
		reasons = append(reasons, fmt.Sprintf("%d shared interests", k))
	case k >= 1:
		score += 10
		reasons = append(reasons, "Some shared interests")
	}

	if score > MaxScore {
		score = MaxScore
	}

	return domain.Compatibility{Score: score, Reasons: reasons}
}

// sharedTokens counts exact lowercase tokens longer than minTokenLen that
// appear in both descriptions.
func sharedTokens(a, b string) int {
	setA := tokenize(a)
	if len(setA) == 0 {
		return 0
	}
	count := 0
	for tok := range tokenize(b) {
		if setA[tok] {
			count++
		}
	}
	return count
}

func tokenize(desc string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(desc)) {
		if len(f) > minTokenLen {
			tokens[f] = true
		}
	}
	return tokens
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
