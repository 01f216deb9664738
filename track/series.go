package track

import (
	"fmt"

	"f1telemetry/models"
)

// ChannelSeries returns a lap's channel against lap distance. ok is false when the lap has no
// such channel.
func ChannelSeries(rec models.LapRecording, channel, label string) (models.Series, bool) {
	vals, ok := rec.Channels[channel]
	if !ok {
		return models.Series{}, false
	}
	return models.Series{
		Label:   fmt.Sprintf("%s %s", channel, label),
		Channel: channel,
		X:       rec.Distances(),
		Y:       append([]float64(nil), vals...),
	}, true
}

// DeltaSeries converts delta curves into plottable series, optionally smoothed with a moving average.
func DeltaSeries(set *models.DeltaSet, smooth int) []models.Series {
	if set == nil {
		return nil
	}
	out := make([]models.Series, 0, len(set.Curves))
	for _, c := range set.Curves {
		y := make([]float64, len(c.DeltaMs))
		for i, d := range c.DeltaMs {
			y[i] = float64(d)
		}
		label := c.Label
		if label == "" {
			label = fmt.Sprintf("Lap %d", c.LapIndex)
		}
		out = append(out, models.Series{
			Label:   fmt.Sprintf("%s %s", models.DeltaChannel, label),
			Channel: models.DeltaChannel,
			X:       append([]float64(nil), c.Distances...),
			Y:       SmoothSeries(y, smooth),
		})
	}
	return out
}

// DeltaSummary describes where a lap gained or lost time against the reference.
type DeltaSummary struct {
	FinalMs    int64
	MaxGainMs  int64
	GainAt     float64
	MaxLossMs  int64
	LossAt     float64
	PointCount int
}

// Summarize reports the final delta and the extreme gain (most negative) and loss (most positive).
func Summarize(c models.DeltaCurve) DeltaSummary {
	sum := DeltaSummary{PointCount: c.Len()}
	if c.Len() == 0 {
		return sum
	}
	sum.FinalMs = c.DeltaMs[len(c.DeltaMs)-1]
	for i, d := range c.DeltaMs {
		if d < sum.MaxGainMs {
			sum.MaxGainMs = d
			sum.GainAt = c.Distances[i]
		}
		if d > sum.MaxLossMs {
			sum.MaxLossMs = d
			sum.LossAt = c.Distances[i]
		}
	}
	return sum
}
