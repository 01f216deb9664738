package track

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"f1telemetry/models"
)

// DefaultGridPoints is the number of distance checkpoints laps are aligned on.
const DefaultGridPoints = 1000

// --- DISTANCE GRID ---

// BuildGrid returns n evenly spaced distances from 0 to maxDistance inclusive.
// n == 1 yields [0]; n <= 0 or a negative/NaN maxDistance yields an empty grid.
func BuildGrid(maxDistance float64, n int) models.DistanceGrid {
	if n <= 0 || maxDistance < 0 || math.IsNaN(maxDistance) || math.IsInf(maxDistance, 0) {
		return nil
	}
	if n == 1 {
		return models.DistanceGrid{0}
	}
	grid := make([]float64, n)
	floats.Span(grid, 0, maxDistance)
	return grid
}

// --- TRACK MAP ---

// Channels used to draw the track outline. Z is inverted so the map reads as seen from above.
const (
	PositionXChannel = "WorldPositionX"
	PositionZChannel = "WorldPositionZ"
	YawChannel       = "Yaw"
)

// BuildTrackMap turns a lap's world positions into trackpoints keyed by lap distance.
// Returns nil when the lap has no position channels.
func BuildTrackMap(rec models.LapRecording) []models.Trackpoint {
	xs, okX := rec.Channels[PositionXChannel]
	zs, okZ := rec.Channels[PositionZChannel]
	if !okX || !okZ || len(rec.Samples) == 0 {
		return nil
	}
	yaw := rec.Channels[YawChannel]

	out := make([]models.Trackpoint, len(rec.Samples))
	for i, s := range rec.Samples {
		x := cleanFloat(xs[i], 0)
		y := -cleanFloat(zs[i], 0)

		var dx, dy float64
		if i > 0 {
			dx = x - out[i-1].X
			dy = y - out[i-1].Y
		}
		var yawVal float64
		if i < len(yaw) {
			yawVal = yaw[i]
		}

		heading := worldHeading(yawVal, dx, dy)
		if heading == 0 && i > 0 {
			heading = out[i-1].Theta
		}

		out[i] = models.Trackpoint{S: s.Distance, X: x, Y: y, Theta: heading}
	}
	return out
}

func cleanFloat(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// worldHeading prefers the game's yaw and falls back to the path delta.
func worldHeading(yaw, dx, dy float64) float64 {
	if !math.IsNaN(yaw) && !math.IsInf(yaw, 0) && yaw != 0 {
		return yaw
	}
	if dx != 0 || dy != 0 {
		return math.Atan2(dy, dx)
	}
	return 0
}

// TrackLength sums the straight-line distance between consecutive trackpoints.
func TrackLength(points []models.Trackpoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	return total
}

// LoopRadius is how close, in metres, a lap's last position must be to its first for the
// trace to count as a closed circuit.
const LoopRadius = 50.0

// ClosesLoop reports whether the trace ends within radius of where it started.
func ClosesLoop(points []models.Trackpoint, radius float64) bool {
	if len(points) < 2 {
		return false
	}
	start := points[0]
	end := points[len(points)-1]
	dx := end.X - start.X
	dy := end.Y - start.Y
	return dx*dx+dy*dy <= radius*radius
}

// CloseLoop appends the start point to a trace that ends near it, so a drawn circuit has no
// gap at the line. The closing point's S continues past the last sample.
func CloseLoop(points []models.Trackpoint, radius float64) []models.Trackpoint {
	if !ClosesLoop(points, radius) {
		return points
	}
	last := points[len(points)-1]
	first := points[0]
	gap := math.Hypot(first.X-last.X, first.Y-last.Y)
	if gap == 0 {
		return points
	}
	closing := first
	closing.S = last.S + gap
	return append(points[:len(points):len(points)], closing)
}
