package storage

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

func testResult() *experiment.Result {
	return &experiment.Result{
		Names: []string{"kinetic", "contacts"},
		Samples: []experiment.Sample{
			{Frame: 0, Time: 0, Values: []float64{0, 0}},
			{Frame: 10, Time: 0.1, Values: []float64{1.25, 3}},
		},
		Metrics:   map[string]float64{"kinetic": 1.25, "contacts": 3},
		FramesRun: 10,
		Elapsed:   150 * time.Millisecond,
		Final: &cloth.State{
			Positions:  []mgl32.Vec3{{0, 10, 0}, {1, 9.5, -1}},
			Velocities: make([]mgl32.Vec3, 2),
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, _ := config.GetPreset("tiny")
	runID, err := st.Save("tiny", "cpu", cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "tiny" || meta.Backend != "cpu" || meta.Resolution != 8 || meta.Vertices != 64 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["contacts"] != 3 || meta.FramesRun != 10 {
		t.Errorf("unexpected metrics %v frames %d", meta.Metrics, meta.FramesRun)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	want := &Series{
		Names:  []string{"kinetic", "contacts"},
		Frames: []int{0, 10},
		Times:  []float64{0, 0.1},
		Values: [][]float64{{0, 0}, {1.25, 3}},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("series mismatch:\n%s", diff)
	}

	pos, err := st.LoadPositions(runID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testResult().Final.Positions, pos); diff != "" {
		t.Errorf("positions mismatch:\n%s", diff)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch:\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	cfg := config.DefaultConfig()
	first, _ := st.Save("a", "cpu", cfg, testResult())
	time.Sleep(2 * time.Millisecond)
	second, _ := st.Save("b", "cpu", cfg, testResult())

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error")
	}
	if _, err := st.LoadSeries("nope"); err == nil {
		t.Error("expected error")
	}
	if _, err := st.LoadPositions("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save("drape", "cpu", config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}

	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != runID || out.Name != "drape" {
		t.Errorf("unexpected header %+v", out.RunMetadata)
	}
	if diff := cmp.Diff([]float64{0, 1.25}, out.Series["kinetic"]); diff != "" {
		t.Errorf("kinetic mismatch:\n%s", diff)
	}
}
