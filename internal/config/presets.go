package config

var Presets = map[string]map[string]*Config{
	"tanks": {
		"coarse": {
			Scenario: "tanks", Dt: 10, Duration: 240, Tolerance: 1e-2, Adaptive: false,
		},
		"fine": {
			Scenario: "tanks", Dt: 0.1, Duration: 240, Tolerance: 1e-8, Adaptive: true,
		},
	},
	"logistic": {
		"chaos": {
			Scenario: "logistic", Duration: 100,
			Params: ScenarioParams{Mu: 4.0, X0: 0.2},
		},
		"periodic": {
			Scenario: "logistic", Duration: 100,
			Params: ScenarioParams{Mu: 3.2, X0: 0.2},
		},
	},
	"delay_sine": {
		"coarse": {
			Scenario: "delay_sine", Dt: 0.1, Duration: 6.28, Adaptive: false,
		},
		"fine": {
			Scenario: "delay_sine", Dt: 0.01, Duration: 6.28, Adaptive: false,
		},
	},
	"decay": {
		"default": {
			Scenario: "decay", Dt: 0.01, Duration: 5, Tolerance: 1e-8, Adaptive: true,
			Params: ScenarioParams{Tau: 0.7},
		},
	},
	"oscillator": {
		"ringdown": {
			Scenario: "oscillator", Dt: 0.001, Duration: 5, Tolerance: 1e-8, Adaptive: true,
			Params: ScenarioParams{Omega: 6.2832, Zeta: 0.05},
		},
		"undamped": {
			Scenario: "oscillator", Dt: 0.001, Duration: 5, Tolerance: 1e-8, Adaptive: true,
			Params: ScenarioParams{Omega: 6.2832, Zeta: 0},
		},
	},
	"ladder": {
		"short": {
			Scenario: "ladder", Dt: 0.05, Duration: 20, Tolerance: 1e-6, Adaptive: true,
			Params: ScenarioParams{R: 1.0, C: 1.0, Sections: 4},
		},
	},
}

func GetPreset(scenario, name string) *Config {
	group, ok := Presets[scenario]
	if !ok {
		return nil
	}
	return group[name]
}

func ListPresets(scenario string) []string {
	group, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}
