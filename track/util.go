package track

import (
	"sort"

	"f1telemetry/models"
)

// SmoothSeries applies a trailing moving average over the input. window <= 1 returns vals unchanged.
func SmoothSeries(vals []float64, window int) []float64 {
	if window <= 1 {
		return vals
	}
	out := make([]float64, len(vals))
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		count := window
		if i+1 < window {
			count = i + 1
		}
		out[i] = sum / float64(count)
	}
	return out
}

// TimeAtDistance interpolates the lap time at a distance from distance-ordered samples.
// Distances outside the recorded range clamp to the first or last sample.
func TimeAtDistance(samples []models.Sample, distance float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	j := sort.Search(len(samples), func(i int) bool { return samples[i].Distance >= distance })
	if j == 0 {
		return float64(samples[0].TimeMs)
	}
	if j == len(samples) {
		return float64(samples[len(samples)-1].TimeMs)
	}
	p1 := samples[j-1]
	p2 := samples[j]
	denom := p2.Distance - p1.Distance
	t := 0.0
	if denom > 0 {
		t = (distance - p1.Distance) / denom
	}
	return float64(p1.TimeMs) + t*float64(p2.TimeMs-p1.TimeMs)
}
