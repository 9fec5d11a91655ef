package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/storage"
	"github.com/lmoser/shellfit/internal/structure"
)

func testMeta() *storage.RunMetadata {
	return &storage.RunMetadata{
		ID:        "mgo_1700000000",
		System:    "mgo",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		BestCost:  0.042,
	}
}

func testHistory() []storage.HistoryRecord {
	return []storage.HistoryRecord{
		{Generation: 0, BestCost: 4.0, Params: []float64{900}},
		{Generation: 1, BestCost: 1.5, Params: []float64{830}},
	}
}

func testComparisons() []relax.Comparison {
	return []relax.Comparison{
		{
			Name:   "strain_00",
			Fit:    structure.LatticeConstants{A: 4.242, B: 4.242, C: 4.242},
			Ref:    structure.LatticeConstants{A: 4.2, B: 4.2, C: 4.2},
			FitVol: 76.35,
			RefVol: 74.09,
		},
	}
}

func TestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, JSON(path, testMeta(), []string{"pair/Mg-O/a"}, testHistory(), testComparisons()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got RunData
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "mgo_1700000000", got.Meta.ID)
	assert.Equal(t, []string{"pair/Mg-O/a"}, got.ParamNames)
	require.Len(t, got.Generations, 2)
	assert.Equal(t, 1.5, got.Generations[1].BestCost)
	require.Len(t, got.Lattice, 1)
	assert.InDelta(t, 1.0, got.Lattice[0].PctA, 1e-9)
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, CSV(path, []string{"pair/Mg-O/a"}, testHistory()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"generation", "best_cost", "pair/Mg-O/a"}, rows[0])
	assert.Equal(t, "900", rows[1][2])
}

func TestConvergencePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.png")
	require.NoError(t, ConvergencePNG(path, "mgo fit", testHistory()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, ConvergencePNG(path, "empty", nil))
}

func TestLatticePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.png")
	require.NoError(t, LatticePNG(path, "mgo lattice", testComparisons()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, LatticePNG(path, "empty", nil))
}
