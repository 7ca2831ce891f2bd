package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/davner/daesim/internal/analysis"
	"github.com/davner/daesim/internal/config"
	"github.com/davner/daesim/internal/discrete"
	"github.com/davner/daesim/internal/dynsys"
	"github.com/davner/daesim/internal/flow"
	"github.com/davner/daesim/internal/scenarios"
	"github.com/davner/daesim/internal/stepper"
	"github.com/davner/daesim/internal/store"
	"github.com/davner/daesim/internal/viz"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	tolerance  float64
	adaptive   bool
	mu         float64
	x0         float64
	tau        float64
	rParam     float64
	cParam     float64
	pIn        float64
	omega      float64
	zeta       float64
	sections   int
	configFile string
	preset     string
	watch      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "daesim",
		Short: "descriptor-system simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".daesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation and save the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "initial timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "end time")
	runCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTol, "error tolerance")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", true, "adaptive step control")
	runCmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "logistic map gain")
	runCmd.Flags().Float64Var(&x0, "x0", config.DefaultX0, "logistic map seed")
	runCmd.Flags().Float64Var(&tau, "tau", config.DefaultTau, "decay timescale")
	runCmd.Flags().Float64Var(&rParam, "r", 2.0, "conduit/ladder resistance")
	runCmd.Flags().Float64Var(&cParam, "c", 3.0, "conduit/ladder compliance")
	runCmd.Flags().Float64Var(&pIn, "pin", 5.0, "conduit inlet pressure")
	runCmd.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "oscillator natural frequency")
	runCmd.Flags().Float64Var(&zeta, "zeta", config.DefaultZeta, "oscillator damping ratio")
	runCmd.Flags().IntVar(&sections, "sections", 4, "ladder sections")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	graphCmd := &cobra.Command{
		Use:   "graph [run_id]",
		Short: "chart a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  graphRun,
	}
	graphCmd.Flags().IntVar(&watch, "system", 0, "constituent index to chart")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved run to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "initial timestep")
	liveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "end time")
	liveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTol, "error tolerance")
	liveCmd.Flags().BoolVar(&adaptive, "adaptive", true, "adaptive step control")
	liveCmd.Flags().IntVar(&watch, "system", 0, "constituent index to chart")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "tanks\ttwo-compartment mixing (coupled path)")
			fmt.Fprintln(w, "logistic\tlogistic map x <- mu*x*(1-x)")
			fmt.Fprintln(w, "delay_sine\tdelay equation x' = -x(t - pi/2)")
			fmt.Fprintln(w, "decay\texponential decay tau*x' + x = 0")
			fmt.Fprintln(w, "conduit\thydraulic line RC dp/dt + p = pIn")
			fmt.Fprintln(w, "oscillator\tsecond-order vibration (Newmark)")
			fmt.Fprintln(w, "ladder\tlumped line with algebraic inlet (DAE)")
			w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the logistic map's largest Lyapunov exponent",
		RunE:  lyapunovLogistic,
	}
	lyapunovCmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "logistic map gain")
	lyapunovCmd.Flags().Float64Var(&x0, "x0", config.DefaultX0, "logistic map seed")

	rootCmd.AddCommand(runCmd, listCmd, graphCmd, exportCmd, exportCSVCmd,
		liveCmd, scenariosCmd, presetsCmd, lyapunovCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig(scenario string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for scenario %q", preset, scenario)
		}
		cfg = p
	} else if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.Dt = dt
		cfg.Duration = duration
		cfg.Tolerance = tolerance
		cfg.Adaptive = adaptive
		cfg.Params.Mu = mu
		cfg.Params.X0 = x0
		cfg.Params.Tau = tau
		cfg.Params.R = rParam
		cfg.Params.C = cParam
		cfg.Params.PIn = pIn
		cfg.Params.Omega = omega
		cfg.Params.Zeta = zeta
		cfg.Params.Sections = sections
	}
	cfg.Scenario = scenario
	return cfg, nil
}

func buildScenario(cfg *config.Config) (*flow.Path, []dynsys.State, error) {
	switch cfg.Scenario {
	case "tanks":
		return scenarios.Tanks()
	case "logistic":
		return scenarios.Logistic(cfg.Params.Mu, cfg.Params.X0)
	case "delay_sine":
		return scenarios.DelaySine()
	case "decay":
		return scenarios.Decay(cfg.Params.Tau)
	case "conduit":
		theta := cfg.Params.Theta
		if theta == 0 {
			theta = config.DefaultTheta
		}
		return scenarios.Conduit(cfg.Params.R, cfg.Params.C, cfg.Params.PIn, theta)
	case "oscillator":
		om := cfg.Params.Omega
		if om == 0 {
			om = config.DefaultOmega
		}
		return scenarios.Oscillator(om, cfg.Params.Zeta)
	case "ladder":
		path, x0s, _, err := scenarios.Ladder(cfg.Params.Sections, cfg.Params.R, cfg.Params.C)
		return path, x0s, err
	default:
		return nil, nil, fmt.Errorf("unknown scenario: %s", cfg.Scenario)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args[0])
	if err != nil {
		return err
	}
	path, x0s, err := buildScenario(cfg)
	if err != nil {
		return err
	}

	st := stepper.New(path, cfg.StepperConfig())
	result, runErr := st.Run(context.Background(), x0s)
	if runErr != nil && result == nil {
		return runErr
	}
	if runErr != nil {
		// Partial trajectory up to the last accepted step is still saved.
		fmt.Fprintf(os.Stderr, "simulation halted: %v\n", runErr)
	}

	s := store.New(dataDir)
	if err := s.Init(); err != nil {
		return err
	}
	runID, err := s.Save(cfg.Scenario, cfg.Dt, cfg.Duration, cfg.Tolerance, cfg.Adaptive, path, result)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d steps accepted, %d rejected, t final %.6g\n",
		runID, result.StepsTaken, result.StepsRejected, result.Times[len(result.Times)-1])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tSTEPS\tREJECTED\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Scenario, r.StepsTaken, r.StepsRejected,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func graphRun(cmd *cobra.Command, args []string) error {
	_, traj, err := store.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	if watch < 0 || watch >= len(traj.Systems) {
		return fmt.Errorf("system index %d out of range (%d systems)", watch, len(traj.Systems))
	}
	sys := traj.Systems[watch]
	values := make([]float64, len(sys.States))
	for k := range sys.States {
		values[k] = sys.States[k][0]
	}
	fmt.Println(viz.Chart(fmt.Sprintf("%s: %s[0]", args[0], sys.Name), values))
	fmt.Println(viz.Legend(traj.Times[0], traj.Times[len(traj.Times)-1], len(traj.Times)))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, traj, err := store.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata   *store.RunMetadata `json:"metadata"`
		Trajectory *store.Trajectory  `json:"trajectory"`
	}{meta, traj})
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return store.New(dataDir).ExportCSV(args[0], os.Stdout)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args[0])
	if err != nil {
		return err
	}
	path, x0s, err := buildScenario(cfg)
	if err != nil {
		return err
	}
	if watch < 0 || watch >= path.Len() {
		return fmt.Errorf("system index %d out of range (%d systems)", watch, path.Len())
	}

	m := viz.NewModel(cfg.Scenario, path, cfg.StepperConfig(), x0s, watch)
	_, err = tea.NewProgram(m).Run()
	return err
}

func lyapunovLogistic(cmd *cobra.Command, args []string) error {
	exponent := analysis.LyapunovExponent(
		discrete.Logistic(mu), dynsys.State{x0}, 10_000, 1e-9)
	fmt.Printf("mu=%.4g: largest Lyapunov exponent %.6f", mu, exponent)
	if exponent > 0 {
		fmt.Print("  (chaotic)")
	}
	fmt.Println()
	return nil
}
