package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

var ErrNoRuns = errors.New("no saved runs")

var stateHeader = []string{"time", "theta", "theta_dot", "length", "length_dot", "x", "y"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Model        string             `json:"model"`
	Preset       string             `json:"preset,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Integrator   string             `json:"integrator"`
	Params       map[string]float64 `json:"params"`
	InitialState []float64          `json:"initial_state"`
	Steps        int                `json:"steps"`
	Rejected     int                `json:"rejected"`
	Metrics      map[string]float64 `json:"metrics"`
}

func newRunID(model string) string {
	return fmt.Sprintf("%s-%s", model, uuid.NewString()[:8])
}

// Save writes metadata.json and states.csv into a new run directory and
// returns the run id. Fields of meta that describe the trajectory are
// filled in from traj.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (string, error) {
	if meta.Model == "" {
		meta.Model = "elastic"
	}
	if meta.ID == "" {
		meta.ID = newRunID(meta.Model)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Dt = traj.Dt
	meta.Duration = traj.Horizon()
	meta.Steps = traj.Stats.Steps
	meta.Rejected = traj.Stats.Rejected
	if meta.Metrics == nil {
		meta.Metrics = traj.Metrics
	}
	if meta.InitialState == nil && traj.Len() > 0 {
		meta.InitialState = traj.States[0].Clone()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), traj); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// writeFile creates path and hands write a buffered writer. Errors from
// flushing and closing the file are reported as well.
func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeStates(path string, traj *dynamo.Trajectory) error {
	return writeFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(stateHeader); err != nil {
			return err
		}

		row := make([]string, len(stateHeader))
		for i, st := range traj.States {
			x, y := physics.Cartesian(st)
			row[0] = formatFloat(traj.Times[i])
			for j := 0; j < 4; j++ {
				row[j+1] = formatFloat(st[j])
			}
			row[5] = formatFloat(x)
			row[6] = formatFloat(y)
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// formatFloat keeps full precision so a reloaded trajectory has the same
// turnarounds as the in-memory run.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns all runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve maps an empty id or "latest" to the most recent run.
func (s *Store) Resolve(runID string) (string, error) {
	if runID != "" && runID != "latest" {
		return runID, nil
	}
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates reads the state columns of states.csv. The derived x and y
// columns are skipped.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	file, err := os.Open(s.statesPath(runID))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) < 5 {
			return nil, nil, fmt.Errorf("run %s: line %d has %d fields", runID, line+2, len(record))
		}
		vals := make([]float64, 5)
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s: line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		states = append(states, dynamo.State(vals[1:]))
	}
	return states, times, nil
}

// LoadTrajectory rebuilds a trajectory from a saved run.
func (s *Store) LoadTrajectory(runID string) (*RunMetadata, *dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	traj := &dynamo.Trajectory{
		Times:   times,
		States:  states,
		Dt:      meta.Dt,
		Metrics: meta.Metrics,
		Stats:   dynamo.Stats{Steps: meta.Steps, Rejected: meta.Rejected},
	}
	return meta, traj, nil
}

func (s *Store) statesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "states.csv")
}
