package track

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1telemetry/models"
)

func lap(idx int, lapTime int64, dist []float64, times []int64) models.LapRecording {
	return models.LapRecording{
		LapIndex:  idx,
		LapTimeMs: lapTime,
		Path:      fmt.Sprintf("lap_%d_data.json", idx),
		Samples:   samplesAt(dist, times),
	}
}

func indexOf(laps ...models.LapRecording) models.SessionIndex {
	var idx models.SessionIndex
	for _, l := range laps {
		idx = append(idx, models.LapEntry{LapIndex: l.LapIndex, LapTimeMs: l.LapTimeMs, Path: l.Path, Valid: l.Valid()})
	}
	return idx
}

func TestComputeDeltasEndToEnd(t *testing.T) {
	t.Parallel()

	ref := lap(1, 2000, []float64{0, 10, 20}, []int64{0, 1000, 2000})
	other := lap(2, 2100, []float64{0, 10, 20}, []int64{0, 1100, 1900})

	for _, pairing := range []Pairing{PairByGrid, PairByEmission} {
		pairing := pairing
		t.Run(pairing.String(), func(t *testing.T) {
			t.Parallel()
			e := &Engine{GridPoints: 3, Pairing: pairing}
			set, err := e.ComputeDeltas(indexOf(ref, other), []models.LapRecording{ref, other})
			require.NoError(t, err)

			assert.Equal(t, 1, set.Reference.LapIndex)
			assert.Equal(t, models.DistanceGrid{0, 10, 20}, set.Grid)
			require.Len(t, set.Curves, 1)
			assert.Equal(t, 2, set.Curves[0].LapIndex)
			assert.Equal(t, []float64{0, 10, 20}, set.Curves[0].Distances)
			assert.Equal(t, []int64{0, 100, -100}, set.Curves[0].DeltaMs)
		})
	}
}

func TestReferenceSelection(t *testing.T) {
	t.Parallel()

	a := lap(1, 90000, []float64{0, 10}, []int64{0, 1})
	b := lap(2, 85000, []float64{0, 10}, []int64{0, 1})
	c := lap(3, 95000, []float64{0, 10}, []int64{0, 1})

	orders := [][]models.LapRecording{{a, b, c}, {c, b, a}, {b, a, c}}
	for _, laps := range orders {
		e := &Engine{}
		set, err := e.ComputeDeltas(indexOf(laps...), laps)
		require.NoError(t, err)
		assert.Equal(t, 2, set.Reference.LapIndex)
		assert.Equal(t, int64(85000), set.Reference.LapTimeMs)
		assert.Len(t, set.Curves, 2)
		for _, curve := range set.Curves {
			assert.NotEqual(t, 2, curve.LapIndex)
		}
	}
}

func TestReferenceSelectionTieGoesToFirst(t *testing.T) {
	t.Parallel()

	idx := models.SessionIndex{
		{LapIndex: 4, LapTimeMs: 80000, Valid: true},
		{LapIndex: 5, LapTimeMs: 80000, Valid: true},
	}
	ref, ok := idx.Fastest()
	require.True(t, ok)
	assert.Equal(t, 4, ref.LapIndex)
}

func TestReferenceComesFromWholeSession(t *testing.T) {
	t.Parallel()

	ref := lap(1, 80000, []float64{0, 10, 20}, []int64{0, 1000, 2000})
	selected := lap(2, 81000, []float64{0, 10, 20}, []int64{0, 1050, 2050})

	index := models.SessionIndex{
		{LapIndex: 1, LapTimeMs: 80000, Path: ref.Path, Label: "Lap 1: 1:20:000", Valid: true},
		{LapIndex: 2, LapTimeMs: 81000, Path: selected.Path, Label: "Lap 2: 1:21:000", Valid: true},
	}

	var loaded []string
	e := &Engine{GridPoints: 3, Loader: func(path string) (models.LapRecording, error) {
		loaded = append(loaded, path)
		return ref, nil
	}}

	set, err := e.ComputeDeltas(index, []models.LapRecording{selected})
	require.NoError(t, err)
	assert.Equal(t, []string{"lap_1_data.json"}, loaded)
	require.Len(t, set.Curves, 1)
	assert.Equal(t, "Lap 2: 1:21:000", set.Curves[0].Label)
	assert.Equal(t, []int64{0, 50, 50}, set.Curves[0].DeltaMs)
}

func TestLapsSharingAnIndexAreToldApartByPath(t *testing.T) {
	t.Parallel()

	a := lap(0, 2000, []float64{0, 10, 20}, []int64{0, 1000, 2000})
	a.Path = "a.json"
	b := lap(0, 2100, []float64{0, 10, 20}, []int64{0, 1050, 2100})
	b.Path = "b.json"

	index := models.SessionIndex{
		{LapIndex: 0, LapTimeMs: 2000, Path: "a.json", Label: "Lap 0: 0:02:000", Valid: true},
		{LapIndex: 0, LapTimeMs: 2100, Path: "b.json", Label: "Lap 0: 0:02:100", Valid: true},
	}

	set, err := (&Engine{GridPoints: 3}).ComputeDeltas(index, []models.LapRecording{a, b})
	require.NoError(t, err)
	assert.Equal(t, "a.json", set.Reference.Path)
	require.Len(t, set.Curves, 1)
	assert.Equal(t, "b.json", set.Curves[0].Path)
	assert.Equal(t, "Lap 0: 0:02:100", set.Curves[0].Label)
	assert.Equal(t, []int64{0, 50, 100}, set.Curves[0].DeltaMs)
}

func TestComputeDeltasErrors(t *testing.T) {
	t.Parallel()

	t.Run("no laps", func(t *testing.T) {
		t.Parallel()
		_, err := (&Engine{}).ComputeDeltas(nil, nil)
		assert.True(t, errors.Is(err, ErrNoLapsAvailable))
	})

	t.Run("only invalid laps", func(t *testing.T) {
		t.Parallel()
		idx := models.SessionIndex{{LapIndex: 1, LapTimeMs: 1, Valid: false}}
		_, err := (&Engine{}).ComputeDeltas(idx, nil)
		assert.True(t, errors.Is(err, ErrNoLapsAvailable))
	})

	t.Run("reference not loadable", func(t *testing.T) {
		t.Parallel()
		idx := models.SessionIndex{{LapIndex: 1, LapTimeMs: 1, Valid: true}}
		_, err := (&Engine{}).ComputeDeltas(idx, nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNoLapsAvailable))
	})
}

func TestComputeDeltasEmptyLaps(t *testing.T) {
	t.Parallel()

	ref := lap(1, 1000, []float64{0, 10, 20}, []int64{0, 1000, 2000})
	empty := lap(2, 1200, nil, nil)
	broken := models.LapRecording{LapIndex: 3, Err: errors.New("bad file")}

	set, err := (&Engine{GridPoints: 3}).ComputeDeltas(indexOf(ref, empty), []models.LapRecording{ref, empty, broken})
	require.NoError(t, err)
	require.Len(t, set.Curves, 1)
	assert.Equal(t, 0, set.Curves[0].Len())

	t.Run("empty reference gives empty curves", func(t *testing.T) {
		emptyRef := lap(5, 500, nil, nil)
		set, err := (&Engine{}).ComputeDeltas(indexOf(emptyRef, ref), []models.LapRecording{emptyRef, ref})
		require.NoError(t, err)
		assert.Empty(t, set.Grid)
		require.Len(t, set.Curves, 1)
		assert.Equal(t, 0, set.Curves[0].Len())
	})
}

func TestDeltaAgainstSelfIsZero(t *testing.T) {
	t.Parallel()

	grid := BuildGrid(5000, DefaultGridPoints)
	dist := make([]float64, 0, 3000)
	times := make([]int64, 0, 3000)
	for i := 0; i < 3000; i++ {
		dist = append(dist, float64(i)*5000/2999)
		times = append(times, int64(i*30))
	}
	pts := Resample(samplesAt(dist, times), grid)

	for _, pairing := range []Pairing{PairByGrid, PairByEmission} {
		d, delta := DeltaAgainst(pts, pts, len(grid), pairing)
		assert.Len(t, d, len(pts))
		for _, v := range delta {
			assert.Zero(t, v)
		}
	}
}

func TestPairingDivergence(t *testing.T) {
	t.Parallel()

	// The reference never reaches grid cell 1, so emission pairing shifts every later pair.
	grid := BuildGrid(30, 4)
	ref := Resample(samplesAt([]float64{0, 20, 30}, []int64{0, 2000, 3000}), grid)
	other := Resample(samplesAt([]float64{0, 10, 20, 30}, []int64{0, 1000, 2100, 3200}), grid)

	d, delta := DeltaAgainst(ref, other, len(grid), PairByGrid)
	if diff := cmp.Diff([]float64{0, 20, 30}, d); diff != "" {
		t.Errorf("grid distances (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int64{0, 100, 200}, delta)

	d, delta = DeltaAgainst(ref, other, len(grid), PairByEmission)
	assert.Equal(t, []float64{0, 10, 20}, d)
	assert.Equal(t, []int64{0, -1000, -900}, delta)
}

func TestParsePairing(t *testing.T) {
	t.Parallel()

	p, err := ParsePairing("emission")
	require.NoError(t, err)
	assert.Equal(t, PairByEmission, p)

	p, err = ParsePairing("")
	require.NoError(t, err)
	assert.Equal(t, PairByGrid, p)

	_, err = ParsePairing("index")
	assert.Error(t, err)
}
