package engine

import "math"

// confidenceSlope tunes how fast confidence decays with distance.
const confidenceSlope = 0.3

// Confidence maps a similarity distance to a [0,100] score shown to users.
// The mapping is strictly decreasing; distance 0 scores 100. Negative
// distances are clamped to 0, and non-finite inputs score 0 so a bad value
// coming out of an index never raises.
func Confidence(distance float64) float64 {
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return 0.0
	}
	if distance < 0 {
		distance = 0
	}
	score := 100.0 / (1.0 + confidenceSlope*distance)
	return round2(score)
}

// retrievalQuality is the arithmetic mean of per-source scores.
func retrievalQuality(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return round2(sum / float64(len(scores)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
