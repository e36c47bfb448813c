package game

import (
	"math"
	"time"
)

// Score converts answer latency into points: a linear decay from the ceiling
// down to the floor across the answer window, rounded to the nearest point.
// Latencies past the limit still earn the floor.
func (s Settings) Score(elapsed time.Duration) int {
	span := float64(s.ScoreCeiling - s.ScoreFloor)
	frac := float64(elapsed) / float64(s.TimeLimit)
	points := int(math.Round(float64(s.ScoreCeiling) - frac*span))
	if points < s.ScoreFloor {
		return s.ScoreFloor
	}
	return points
}
