package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFormatLapTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1:25:004", FormatLapTime(85004))
	assert.Equal(t, "0:00:000", FormatLapTime(0))
	assert.Equal(t, "12:01:999", FormatLapTime(721999))
	assert.Equal(t, "0:00:000", FormatLapTime(-5))
}

func TestScan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "lap_10_data.json", `{"laptime": 90000, "dataPoints": {}}`)
	writeFile(t, dir, "lap_2_data.json", `{"laptime": 85004, "dataPoints": {}}`)
	writeFile(t, dir, "lap_3_data.json", `{"laptime": `)
	writeFile(t, dir, "notes.txt", `ignored`)

	idx, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, idx, 3)

	assert.Equal(t, []string{
		"Lap 2: 1:25:004",
		"Lap (2): Invalid Format",
		"Lap 10: 1:30:000",
	}, []string{idx[0].Label, idx[1].Label, idx[2].Label})
	assert.True(t, idx[0].Valid)
	assert.False(t, idx[1].Valid)
	assert.Equal(t, 3, idx[1].LapIndex)

	ref, ok := idx.Fastest()
	require.True(t, ok)
	assert.Equal(t, 2, ref.LapIndex)
}

func TestSelect(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "lap_1_data.json", `{"laptime": 1, "dataPoints": {}}`)
	writeFile(t, dir, "lap_2_data.json", `bad`)
	writeFile(t, dir, "lap_3_data.json", `{"laptime": 3, "dataPoints": {}}`)

	idx, err := Scan(dir)
	require.NoError(t, err)

	all := Select(idx, nil)
	assert.Len(t, all, 2)

	some := Select(idx, []int{3, 2})
	require.Len(t, some, 2)
	assert.Equal(t, 2, some[0].LapIndex)
	assert.Equal(t, 3, some[1].LapIndex)
	assert.Len(t, Paths(some), 2)

	assert.Equal(t, "Lap 3: 0:00:003", Label(idx, filepath.Join(dir, "lap_3_data.json"), 3))
	assert.Equal(t, "Lap 9", Label(idx, filepath.Join(dir, "lap_9_data.json"), 9))
}

func TestBuildRejectsBrokenSamples(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	good := writeFile(t, dir, "lap_1_data.json", `{"laptime": 2000, "dataPoints": {"1": [{"LapDistance": 0, "LapTime": 0}]}}`)
	broken := writeFile(t, dir, "lap_2_data.json", `{"laptime": 1500, "dataPoints": {"2": [1, 2]}}`)

	idx := Build([]string{broken, good})
	require.Len(t, idx, 2)
	assert.True(t, idx[0].Valid)
	assert.False(t, idx[1].Valid)
	assert.Equal(t, "Lap (2): Invalid Format", idx[1].Label)
	assert.Zero(t, idx[1].LapTimeMs)

	ref, ok := idx.Fastest()
	require.True(t, ok)
	assert.Equal(t, good, ref.Path)
}
