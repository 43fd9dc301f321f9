package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/orrery/internal/frame"
)

func recordRun(t *testing.T, st *Store, id string, ticks int) {
	t.Helper()
	rec, err := st.Create(RunMetadata{ID: id, Policy: "solar", Seed: 42, Timestep: 3600, Bodies: 2, DistanceUnit: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for i := 1; i <= ticks; i++ {
		f := frame.Frame{{0, 0, 0, 0.05}, {1, float64(i) / 10, 0, 0.01}}
		if err := rec.OnFrame(i, float64(i)*3600, f); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
	if err := rec.Close(map[string]float64{"bound": 1}); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestStoreRecordLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	recordRun(t, st, "solar_1", 3)

	meta, err := st.Load("solar_1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Policy != "solar" || meta.Seed != 42 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", meta.Ticks)
	}
	if meta.Metrics["bound"] != 1 {
		t.Errorf("expected bound 1, got %v", meta.Metrics["bound"])
	}

	frames, times, err := st.LoadFrames("solar_1")
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 frames, got %d/%d", len(frames), len(times))
	}
	if frames[2][1][1] != 0.3 || times[2] != 3*3600 {
		t.Errorf("frame 3 = %v at %v", frames[2], times[2])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	recordRun(t, st, "a", 1)
	time.Sleep(time.Millisecond)
	recordRun(t, st, "b", 1)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "a" || runs[1].ID != "b" {
		t.Errorf("unexpected runs %+v", runs)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = (%v, %v), want empty", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	recordRun(t, st, "run", 1)

	for _, name := range []string{"metadata.json", "frames.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, "run", name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreGeneratedID(t *testing.T) {
	st := New(t.TempDir())
	rec, err := st.Create(RunMetadata{Policy: "random", Bodies: 1})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID() == "" {
		t.Error("expected generated run id")
	}
	if err := rec.Close(nil); err != nil {
		t.Fatal(err)
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	recordRun(t, st, "exp", 2)

	var buf bytes.Buffer
	if err := st.Export(&buf, "exp"); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.ID != "exp" || len(data.Frames) != 2 || len(data.Times) != 2 {
		t.Errorf("unexpected export %+v", data)
	}
}
