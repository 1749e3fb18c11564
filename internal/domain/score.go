package domain

import (
	"math"
	"time"
)

// Score caps per contribution. The three caps sum to MaxScore.
const (
	maxVolumePoints = 50.0
	maxAgePoints    = 30.0
	maxCountPoints  = 20.0

	MaxScore = 100

	volumePerPoint = 1000.0
	pointsPerYear  = 5.0
	pointsPerWord  = 5.0

	scoringYear = 365 * 24 * time.Hour
)

// Score is the advisory quality score of a domain in [0, MaxScore].
//
// It sums three capped contributions: total keyword search volume (1 point
// per 1000, max 50), registration age (5 points per 365 days, max 30) and
// keyword count (5 points each, max 20). The sum is rounded to the nearest
// integer. A nil registeredAt contributes nothing.
func Score(volumes []int64, keywordCount int, registeredAt *time.Time, now time.Time) int {
	var total int64
	for _, v := range volumes {
		total += v
	}

	score := clamp(float64(total)/volumePerPoint, maxVolumePoints)

	if registeredAt != nil {
		years := float64(now.Sub(*registeredAt)) / float64(scoringYear)
		score += clamp(years*pointsPerYear, maxAgePoints)
	}

	score += clamp(float64(keywordCount)*pointsPerWord, maxCountPoints)

	return int(math.Round(score))
}

// clamp bounds a contribution to [0, limit].
func clamp(v, limit float64) float64 {
	return math.Max(0, math.Min(v, limit))
}
