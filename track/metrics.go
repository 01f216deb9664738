package track

import (
	"math"

	"f1telemetry/models"
)

// LapMetrics holds timing for a lap and its sectors, in milliseconds.
type LapMetrics struct {
	Lap         int       `json:"lap"`
	Path        string    `json:"path"`
	LapTime     int64     `json:"lapTime"`
	SectorTime  []float64 `json:"sectorTime,omitempty"`
	SectorDelta []float64 `json:"sectorDelta,omitempty"`
}

// ComputeLapMetrics reports lap and sector times for each valid lap.
// sectors splits every lap into N equal distance slices of its own recorded length; if sectors<=0,
// only lap times are returned. Sector deltas are against the best time for that sector over all laps.
func ComputeLapMetrics(laps []models.LapRecording, sectors int) []LapMetrics {
	if sectors < 0 {
		sectors = 0
	}

	var out []LapMetrics
	for _, lap := range laps {
		if !lap.Valid() {
			continue
		}
		lm := LapMetrics{Lap: lap.LapIndex, Path: lap.Path, LapTime: lap.LapTimeMs}

		if sectors > 0 && len(lap.Samples) > 1 {
			s0 := lap.Samples[0].Distance
			sLap := lap.MaxDistance() - s0
			if sLap < 0 {
				sLap = 0
			}
			lm.SectorTime = make([]float64, sectors)
			for s := 0; s < sectors; s++ {
				segStart := s0 + (float64(s)*sLap)/float64(sectors)
				segEnd := s0 + (float64(s+1)*sLap)/float64(sectors)
				lm.SectorTime[s] = TimeAtDistance(lap.Samples, segEnd) - TimeAtDistance(lap.Samples, segStart)
			}
		}

		out = append(out, lm)
	}

	if sectors > 0 && len(out) > 0 {
		best := make([]float64, sectors)
		for i := range best {
			best[i] = math.Inf(1)
		}
		for _, lm := range out {
			for i, t := range lm.SectorTime {
				if t > 0 && t < best[i] {
					best[i] = t
				}
			}
		}
		for i := range out {
			if len(out[i].SectorTime) == 0 {
				continue
			}
			out[i].SectorDelta = make([]float64, len(out[i].SectorTime))
			for j, t := range out[i].SectorTime {
				if math.IsInf(best[j], 1) || t == 0 {
					continue
				}
				out[i].SectorDelta[j] = t - best[j]
			}
		}
	}

	return out
}
