package algo

import "math"

// SecondsPerDay is the length of one age day.
const SecondsPerDay = 86400

// AgeDays returns whole days between commitTime and now, never negative.
// Two commits less than a day apart in age share the same value.
func AgeDays(now, commitTime int64) int64 {
	age := now - commitTime
	if age <= 0 {
		return 0
	}
	return age / SecondsPerDay
}

// AgeWeight is 1 / (ageDays + 1)^exp.
func AgeWeight(ageDays int64, exp float64) float64 {
	return 1 / math.Pow(float64(ageDays)+1, exp)
}

// SizePenalty is 1 / (1 + sqrt(size / sizeRef)).
func SizePenalty(size int64, sizeRef float64) float64 {
	return 1 / (1 + math.Sqrt(float64(size)/sizeRef))
}
