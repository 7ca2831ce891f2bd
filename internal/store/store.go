// Package store persists finished runs: metadata plus the per-system
// trajectory, as JSON under a data directory, with CSV export.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/davner/daesim/internal/flow"
	"github.com/davner/daesim/internal/stepper"
)

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
	ID            string    `json:"id"`
	Scenario      string    `json:"scenario"`
	Timestamp     time.Time `json:"timestamp"`
	Dt            float64   `json:"dt"`
	Duration      float64   `json:"duration"`
	Tolerance     float64   `json:"tolerance"`
	Adaptive      bool      `json:"adaptive"`
	StepsTaken    int       `json:"steps_taken"`
	StepsRejected int       `json:"steps_rejected"`
}

type SystemTrajectory struct {
	Name   string      `json:"name"`
	States [][]float64 `json:"states"`
}

type Trajectory struct {
	Times   []float64          `json:"times"`
	Systems []SystemTrajectory `json:"systems"`
}

func (s *Store) Save(scenario string, dt, duration, tol float64, adaptive bool, path *flow.Path, result *stepper.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Scenario:      scenario,
		Timestamp:     time.Now(),
		Dt:            dt,
		Duration:      duration,
		Tolerance:     tol,
		Adaptive:      adaptive,
		StepsTaken:    result.StepsTaken,
		StepsRejected: result.StepsRejected,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	traj := Trajectory{Times: result.Times}
	for i := 0; i < path.Len(); i++ {
		st := SystemTrajectory{Name: path.Name(i)}
		for k := range result.States {
			st.States = append(st.States, result.States[k][i])
		}
		traj.Systems = append(traj.Systems, st)
	}
	if err := writeJSON(filepath.Join(runDir, "trajectory.json"), traj); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, *Trajectory, error) {
	runDir := filepath.Join(s.baseDir, runID)

	var meta RunMetadata
	if err := readJSON(filepath.Join(runDir, "metadata.json"), &meta); err != nil {
		return nil, nil, err
	}
	var traj Trajectory
	if err := readJSON(filepath.Join(runDir, "trajectory.json"), &traj); err != nil {
		return nil, nil, err
	}
	return &meta, &traj, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, e.Name(), "metadata.json"), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// ExportCSV writes the trajectory as one row per time with a column
// per state component, headed system/component.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	_, traj, err := s.Load(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, sys := range traj.Systems {
		if len(sys.States) == 0 {
			continue
		}
		for j := range sys.States[0] {
			header = append(header, fmt.Sprintf("%s[%d]", sys.Name, j))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for k, t := range traj.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, sys := range traj.Systems {
			for _, v := range sys.States[k] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
