package store

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/davner/daesim/internal/scenarios"
	"github.com/davner/daesim/internal/stepper"
)

func runTanks(t *testing.T) (*Store, string) {
	t.Helper()

	path, x0, err := scenarios.Tanks()
	if err != nil {
		t.Fatalf("build tanks: %v", err)
	}
	cfg := stepper.DefaultConfig()
	cfg.End = 5
	result, err := stepper.New(path, cfg).Run(context.Background(), x0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	runID, err := s.Save("tanks", cfg.InitialStep, cfg.End, cfg.Tol, cfg.Adaptive, path, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	return s, runID
}

func TestSaveLoad(t *testing.T) {
	s, runID := runTanks(t)

	meta, traj, err := s.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if meta.ID != runID || meta.Scenario != "tanks" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.StepsTaken == 0 {
		t.Error("steps taken not recorded")
	}
	if len(traj.Systems) != 2 {
		t.Fatalf("expected 2 system trajectories, got %d", len(traj.Systems))
	}
	if traj.Systems[0].Name != "tank0" || traj.Systems[1].Name != "tank1" {
		t.Errorf("system names lost: %q, %q", traj.Systems[0].Name, traj.Systems[1].Name)
	}
	if len(traj.Times) != len(traj.Systems[0].States) {
		t.Errorf("ragged trajectory: %d times, %d states",
			len(traj.Times), len(traj.Systems[0].States))
	}
	if traj.Times[0] != 0 || traj.Systems[0].States[0][0] != 0 {
		t.Error("initial sample not preserved")
	}
}

func TestList(t *testing.T) {
	s, runID := runTanks(t)

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("expected the one saved run, got %+v", runs)
	}
}

func TestListEmpty(t *testing.T) {
	s := New(t.TempDir() + "/never-created")
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list on absent dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	s := New(t.TempDir())
	if _, _, err := s.Load("tanks_0"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

func TestExportCSV(t *testing.T) {
	s, runID := runTanks(t)

	var buf bytes.Buffer
	if err := s.ExportCSV(runID, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "time,tank0[0],tank1[0]" {
		t.Errorf("header: got %q", lines[0])
	}

	_, traj, err := s.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != len(traj.Times)+1 {
		t.Errorf("expected %d rows plus header, got %d lines", len(traj.Times), len(lines))
	}
	for _, line := range lines[1:] {
		if strings.Count(line, ",") != 2 {
			t.Fatalf("malformed row %q", line)
		}
	}
}
