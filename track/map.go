package track

import (
	"sort"

	"f1telemetry/models"
)

// NearestIndex returns the index of the value in sorted closest to v. Ties resolve to the
// lower index. Returns -1 for an empty slice.
func NearestIndex(v float64, sorted []float64) int {
	if len(sorted) == 0 {
		return -1
	}
	j := sort.SearchFloat64s(sorted, v)
	if j == 0 {
		return 0
	}
	if j == len(sorted) {
		return len(sorted) - 1
	}
	// sorted[j-1] < v <= sorted[j]; pick the closer, lower on a tie
	if sorted[j]-v < v-sorted[j-1] {
		return j
	}
	return j - 1
}

// Highlight finds, for every series, the point nearest a shared distance. Empty series are skipped.
// Linked views use this to mark the same spot on the lap in every plot and on the track map.
func Highlight(series []models.Series, distance float64) []models.HighlightPoint {
	var out []models.HighlightPoint
	for i, s := range series {
		idx := NearestIndex(distance, s.X)
		if idx < 0 || idx >= len(s.Y) {
			continue
		}
		out = append(out, models.HighlightPoint{Series: i, Index: idx, X: s.X[idx], Y: s.Y[idx]})
	}
	return out
}

// HighlightTrack maps a shared distance onto a track map. ok is false when the map is empty.
func HighlightTrack(points []models.Trackpoint, distance float64) (models.Trackpoint, bool) {
	if len(points) == 0 {
		return models.Trackpoint{}, false
	}
	s := make([]float64, len(points))
	for i, p := range points {
		s[i] = p.S
	}
	return points[NearestIndex(distance, s)], true
}
