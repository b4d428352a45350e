package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
)

func testTrajectory() *dynamo.Trajectory {
	return &dynamo.Trajectory{
		Times: []float64{0, 0.01, 0.02},
		States: []dynamo.State{
			{3 * math.Pi / 4, 0, 1, 0},
			{2.35, -0.0123456789, 1.001, 0.2},
			{2.34, -0.05, 1.004, 0.31},
		},
		Dt:      0.01,
		Metrics: map[string]float64{"energy_drift": 1.5e-7},
		Stats:   dynamo.Stats{Steps: 7, Rejected: 1},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	traj := testTrajectory()
	runID, err := st.Save(RunMetadata{Integrator: "rk45", Params: map[string]float64{"stiffness": 50}}, traj)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "elastic-") || len(runID) != len("elastic-")+8 {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Integrator != "rk45" || meta.Params["stiffness"] != 50 {
		t.Errorf("metadata not preserved: %+v", meta)
	}
	if meta.Dt != 0.01 || meta.Duration != 0.02 || meta.Steps != 7 || meta.Rejected != 1 {
		t.Errorf("trajectory fields not recorded: %+v", meta)
	}
	if meta.Metrics["energy_drift"] != 1.5e-7 {
		t.Errorf("expected drift metric, got %v", meta.Metrics)
	}
	if len(meta.InitialState) != 4 || meta.InitialState[0] != 3*math.Pi/4 {
		t.Errorf("expected initial state, got %v", meta.InitialState)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 samples, got %d states and %d times", len(states), len(times))
	}
	for i := range states {
		for j := range states[i] {
			if states[i][j] != traj.States[i][j] {
				t.Errorf("sample %d component %d: got %v, want %v", i, j, states[i][j], traj.States[i][j])
			}
		}
	}
}

func TestStoreCSVColumns(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(RunMetadata{}, testTrajectory())
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, runID, "states.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "time,theta,theta_dot,length,length_dot,x,y" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("expected header and 3 rows, got %d lines", len(lines))
	}

	first := strings.Split(lines[1], ",")
	if !strings.HasPrefix(first[5], "0.7071") || !strings.HasPrefix(first[6], "0.7071") {
		t.Errorf("expected x,y ~0.7071, got %s,%s", first[5], first[6])
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
	if _, err := st.Resolve("latest"); !errors.Is(err, ErrNoRuns) {
		t.Errorf("expected ErrNoRuns, got %v", err)
	}

	now := time.Now()
	newer, err := st.Save(RunMetadata{Timestamp: now}, testTrajectory())
	if err != nil {
		t.Fatal(err)
	}
	older, err := st.Save(RunMetadata{Timestamp: now.Add(-time.Hour)}, testTrajectory())
	if err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != older || runs[1].ID != newer {
		t.Errorf("expected runs oldest first, got %+v", runs)
	}

	latest, err := st.Resolve("")
	if err != nil || latest != newer {
		t.Errorf("Resolve(\"\") = %q, %v; want %q", latest, err, newer)
	}
	if id, _ := st.Resolve(older); id != older {
		t.Errorf("explicit id should pass through, got %q", id)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestWriteReportsDeviceErrors(t *testing.T) {
	const full = "/dev/full"
	if _, err := os.Stat(full); err != nil {
		t.Skip("no /dev/full on this system")
	}

	if err := writeStates(full, testTrajectory()); err == nil {
		t.Error("writeStates: expected an error writing to a full device")
	}
	if err := writeJSON(full, RunMetadata{ID: "x"}); err == nil {
		t.Error("writeJSON: expected an error writing to a full device")
	}
}

func TestWriteFileCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	boom := errors.New("boom")
	if err := writeFile(path, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}

	if err := writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "ok" {
		t.Errorf("buffered data not flushed, file holds %q", data)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Integrator: "rk4"}, testTrajectory())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.ID != runID || data.Integrator != "rk4" {
		t.Errorf("metadata missing from export: %+v", data.RunMetadata)
	}
	if data.Samples != 3 || len(data.States) != 3 || len(data.States[0]) != 4 {
		t.Errorf("unexpected sample shape: %d samples, %v", data.Samples, data.States)
	}
}

func TestExportCSV(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{}, testTrajectory())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportCSV(&buf, runID); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "time,theta") {
		t.Errorf("unexpected csv: %q", buf.String())
	}
	if err := st.ExportCSV(&buf, "missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}
