package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRunLifecycle(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run, err := st.CreateRun("mgo")
	if err != nil {
		t.Fatalf("create run failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected non-empty run id")
	}

	hw, err := run.History([]string{"pair/Mg-O/a", "pair/Mg-O/rho"})
	if err != nil {
		t.Fatalf("open history failed: %v", err)
	}
	if err := hw.Append(0, 12.5, []float64{800, 0.3}); err != nil {
		t.Fatal(err)
	}
	if err := hw.Append(1, 9.25, []float64{820, 0.32}); err != nil {
		t.Fatal(err)
	}
	if err := hw.Close(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{
		System:     "mgo",
		Timestamp:  time.Now(),
		Seed:       42,
		SampleSize: 2,
		Entries:    []string{"e1", "e2"},
		BestCost:   9.25,
		Converged:  true,
	}
	if err := run.SaveMetadata(meta); err != nil {
		t.Fatalf("save metadata failed: %v", err)
	}

	loaded, err := st.Load(run.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != run.ID {
		t.Errorf("expected id %s, got %s", run.ID, loaded.ID)
	}
	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
	if len(loaded.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(loaded.Entries))
	}

	names, hist, err := st.LoadHistory(run.ID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(names) != 2 || names[0] != "pair/Mg-O/a" {
		t.Errorf("unexpected history columns: %v", names)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist))
	}
	if hist[1].BestCost != 9.25 {
		t.Errorf("expected best cost 9.25, got %f", hist[1].BestCost)
	}
	if hist[1].Params[0] != 820 {
		t.Errorf("expected param 820, got %f", hist[1].Params[0])
	}
}

func TestHistoryRoundTripExact(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, err := st.CreateRun("mgo")
	if err != nil {
		t.Fatal(err)
	}

	// values that need the full float64 width to survive a round trip
	cost := 0.3054610322086667
	params := []float64{821.6000000000001, 1.0 / 3.0}

	hw, err := run.History([]string{"a", "rho"})
	if err != nil {
		t.Fatal(err)
	}
	if err := hw.Append(0, cost, params); err != nil {
		t.Fatal(err)
	}
	if err := hw.Close(); err != nil {
		t.Fatal(err)
	}

	_, hist, err := st.LoadHistory(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 row, got %d", len(hist))
	}
	if hist[0].BestCost != cost {
		t.Errorf("cost changed in round trip: wrote %v, read %v", cost, hist[0].BestCost)
	}
	for i, p := range params {
		if hist[0].Params[i] != p {
			t.Errorf("param %d changed in round trip: wrote %v, read %v", i, p, hist[0].Params[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	run, err := st.CreateRun("mgo")
	if err != nil {
		t.Fatal(err)
	}
	if err := run.SaveMetadata(RunMetadata{System: "mgo"}); err != nil {
		t.Fatal(err)
	}

	// a run dir without metadata is skipped
	if err := os.MkdirAll(filepath.Join(st.RunDir("stray_1")), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].System != "mgo" {
		t.Errorf("expected system mgo, got %s", runs[0].System)
	}
}

func TestStoreListMissingDataDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on missing dir should not fail: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestSaveYAML(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, err := st.CreateRun("mgo")
	if err != nil {
		t.Fatal(err)
	}

	if err := run.SaveYAML(ModelFile, map[string]float64{"a": 821.6}); err != nil {
		t.Fatalf("save yaml failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(run.Dir(), ModelFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("expected yaml content")
	}
}
