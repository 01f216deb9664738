package track

import "f1telemetry/models"

// Resample maps each sample, in input order, to its nearest grid point. Only the first sample
// landing on a grid point is kept, so the output is never longer than the grid or the input.
// Each grid cell carries at most one time value.
func Resample(samples []models.Sample, grid models.DistanceGrid) []models.GridPoint {
	if len(samples) == 0 || len(grid) == 0 {
		return nil
	}

	seen := make([]bool, len(grid))
	out := make([]models.GridPoint, 0, min(len(samples), len(grid)))
	for _, s := range samples {
		gi := NearestIndex(s.Distance, grid)
		if seen[gi] {
			continue
		}
		seen[gi] = true
		out = append(out, models.GridPoint{Index: gi, Distance: grid[gi], TimeMs: s.TimeMs})
	}
	return out
}

// gridTimes indexes resampled points by grid position.
func gridTimes(points []models.GridPoint, gridLen int) ([]int64, []bool) {
	times := make([]int64, gridLen)
	has := make([]bool, gridLen)
	for _, p := range points {
		if p.Index < 0 || p.Index >= gridLen {
			continue
		}
		times[p.Index] = p.TimeMs
		has[p.Index] = true
	}
	return times, has
}
