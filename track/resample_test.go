package track

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1telemetry/models"
)

func samplesAt(dist []float64, times []int64) []models.Sample {
	out := make([]models.Sample, len(dist))
	for i := range dist {
		out[i] = models.Sample{Distance: dist[i], TimeMs: times[i]}
	}
	return out
}

func TestResampleRecoversGridAlignedPoints(t *testing.T) {
	t.Parallel()

	grid := BuildGrid(20, 3)
	got := Resample(samplesAt([]float64{0, 10, 20}, []int64{0, 1000, 2000}), grid)

	assert.Equal(t, []models.GridPoint{
		{Index: 0, Distance: 0, TimeMs: 0},
		{Index: 1, Distance: 10, TimeMs: 1000},
		{Index: 2, Distance: 20, TimeMs: 2000},
	}, got)
}

func TestResampleKeepsFirstSamplePerCell(t *testing.T) {
	t.Parallel()

	grid := BuildGrid(20, 3)
	got := Resample(samplesAt([]float64{0, 1, 2, 9, 11, 19}, []int64{0, 100, 200, 900, 1100, 1900}), grid)

	require.Len(t, got, 3)
	assert.Equal(t, int64(0), got[0].TimeMs)
	assert.Equal(t, int64(900), got[1].TimeMs)
	assert.Equal(t, int64(1900), got[2].TimeMs)
}

func TestResampleTieGoesToLowerGridPoint(t *testing.T) {
	t.Parallel()

	grid := BuildGrid(20, 3)
	got := Resample(samplesAt([]float64{5}, []int64{500}), grid)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
}

func TestResampleEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Resample(nil, BuildGrid(20, 3)))
	assert.Empty(t, Resample(samplesAt([]float64{1}, []int64{1}), nil))
}

func TestResampleProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(400)
		dist := make([]float64, n)
		times := make([]int64, n)
		for i := range dist {
			dist[i] = rng.Float64() * 5000
		}
		sort.Float64s(dist)
		for i := range times {
			times[i] = int64(i * 20)
		}

		grid := BuildGrid(dist[len(dist)-1], 1+rng.Intn(300))
		got := Resample(samplesAt(dist, times), grid)

		assert.LessOrEqual(t, len(got), len(grid))
		assert.LessOrEqual(t, len(got), n)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1].Distance, got[i].Distance)
			assert.Less(t, got[i-1].Index, got[i].Index)
		}
	}
}

func TestNearestIndex(t *testing.T) {
	t.Parallel()

	sorted := []float64{0, 10, 20, 30}
	cases := []struct {
		v    float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{4.9, 0},
		{5, 0},
		{5.1, 1},
		{10, 1},
		{25, 2},
		{29, 3},
		{100, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NearestIndex(c.v, sorted), "v=%v", c.v)
	}
	assert.Equal(t, -1, NearestIndex(1, nil))
}
