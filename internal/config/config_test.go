package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Scenario != "tanks" {
		t.Errorf("default scenario: got %q", cfg.Scenario)
	}
	if cfg.Dt != DefaultDt || cfg.Duration != DefaultDuration || cfg.Tolerance != DefaultTol {
		t.Errorf("default run parameters wrong: %+v", cfg)
	}
	if !cfg.Adaptive {
		t.Error("adaptive should default to on")
	}
	if cfg.Params.Mu != DefaultMu || cfg.Params.Tau != DefaultTau {
		t.Errorf("default params wrong: %+v", cfg.Params)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Scenario = "delay_sine"
	cfg.Dt = 0.05
	cfg.Duration = 42
	cfg.Adaptive = false
	cfg.Params.Tau = 1.25

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Scenario != "delay_sine" || loaded.Dt != 0.05 || loaded.Duration != 42 {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
	if loaded.Adaptive {
		t.Error("adaptive=false lost in roundtrip")
	}
	if loaded.Params.Tau != 1.25 {
		t.Errorf("params.tau: got %v", loaded.Params.Tau)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("scenario: logistic\nduration: 100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scenario != "logistic" || cfg.Duration != 100 {
		t.Errorf("explicit keys not applied: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Tolerance != DefaultTol {
		t.Errorf("unset keys should keep defaults: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStepperConfigMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 25
	cfg.Dt = 0.2
	cfg.Tolerance = 1e-8
	cfg.MaxDt = 0.5

	sc := cfg.StepperConfig()
	if sc.End != 25 || sc.InitialStep != 0.2 || sc.Tol != 1e-8 || sc.MaxStep != 0.5 {
		t.Errorf("stepper mapping wrong: %+v", sc)
	}
	if !sc.Adaptive {
		t.Error("adaptive not carried through")
	}
}

func TestPresets(t *testing.T) {
	for scenario := range Presets {
		names := ListPresets(scenario)
		if len(names) == 0 {
			t.Errorf("scenario %q has no presets", scenario)
		}
		for _, name := range names {
			p := GetPreset(scenario, name)
			if p == nil {
				t.Errorf("preset %s/%s not retrievable", scenario, name)
				continue
			}
			if p.Scenario != scenario {
				t.Errorf("preset %s/%s names scenario %q", scenario, name, p.Scenario)
			}
			if p.Duration <= 0 {
				t.Errorf("preset %s/%s has no duration: %+v", scenario, name, p)
			}
		}
	}

	if GetPreset("tanks", "no_such_preset") != nil {
		t.Error("expected nil for unknown preset")
	}
	if ListPresets("no_such_scenario") != nil {
		t.Error("expected nil for unknown scenario")
	}
}
