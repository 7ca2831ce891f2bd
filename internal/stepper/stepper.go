// Package stepper drives a composed system forward in time, choosing
// the step size from a local error estimate and retrying rejected or
// nonconverged trial steps with a smaller step.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/davner/daesim/internal/dynsys"
	"github.com/davner/daesim/internal/flow"
)

// Phase is the stepper's state-machine state.
type Phase int

const (
	Idle Phase = iota
	Proposing
	Accepted
	Rejected
	Fatal
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Proposing:
		return "proposing"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

type Config struct {
	Start       float64
	End         float64
	InitialStep float64
	MinStep     float64
	MaxStep     float64
	Tol         float64
	Adaptive    bool
	MaxRetries  int
	MaxSteps    int
}

func DefaultConfig() Config {
	return Config{
		Start:       0,
		End:         10,
		InitialStep: 0.01,
		MinStep:     1e-10,
		MaxStep:     1.0,
		Tol:         1e-6,
		Adaptive:    true,
		MaxRetries:  12,
		MaxSteps:    1_000_000,
	}
}

// Result is the produced trajectory: one time column and, per accepted
// time, the state of every constituent. On Fatal the trajectory up to
// the last accepted step is preserved and returned with the error.
type Result struct {
	Times         []float64
	States        [][]dynsys.State
	StepsTaken    int
	StepsRejected int
}

// At returns the recorded state of constituent i at time index k.
func (r *Result) At(k, i int) dynsys.State { return r.States[k][i] }

// Component extracts the j-th component of constituent i across the
// whole trajectory, for charting and export.
func (r *Result) Component(i, j int) []float64 {
	out := make([]float64, len(r.States))
	for k, xs := range r.States {
		out[k] = xs[i][j]
	}
	return out
}

// Stepper owns the integration state: current time, the state of every
// constituent, the current step size and the error-controller memory.
// Constituent systems stay stateless; trajectory lives here and in the
// history buffers.
type Stepper struct {
	path  *flow.Path
	cfg   Config
	ctrl  piController
	phase Phase
}

func New(path *flow.Path, cfg Config) *Stepper {
	return &Stepper{path: path, cfg: cfg, ctrl: newPIController(), phase: Idle}
}

// Phase returns the current state-machine state.
func (s *Stepper) Phase() Phase { return s.phase }

func (s *Stepper) validate(x0 []dynsys.State) error {
	if len(x0) != s.path.Len() {
		return dynsys.ErrDimensionMismatch
	}
	for i := range x0 {
		if len(x0[i]) != s.path.System(i).Dim() {
			return dynsys.ErrDimensionMismatch
		}
	}
	if s.cfg.End <= s.cfg.Start {
		return fmt.Errorf("stepper: end %g not after start %g", s.cfg.End, s.cfg.Start)
	}
	if s.cfg.InitialStep <= 0 {
		return fmt.Errorf("stepper: initial step must be positive, got %g", s.cfg.InitialStep)
	}
	if s.cfg.Adaptive && s.cfg.Tol <= 0 {
		return fmt.Errorf("stepper: tolerance must be positive for adaptive stepping")
	}
	return nil
}

// Run marches the composed system from Start to End. The returned
// Result always holds the trajectory up to the last accepted step, even
// when the error is non-nil.
func (s *Stepper) Run(ctx context.Context, x0 []dynsys.State) (*Result, error) {
	if err := s.validate(x0); err != nil {
		return nil, err
	}

	if s.path.Discrete() {
		return s.runDiscrete(ctx, x0)
	}

	t := s.cfg.Start
	xs := cloneAll(x0)
	h := s.cfg.InitialStep

	result := &Result{}
	result.Times = append(result.Times, t)
	result.States = append(result.States, cloneAll(xs))

	if err := s.path.Record(t, xs); err != nil {
		return result, err
	}

	s.ctrl.reset()
	s.phase = Proposing

	for t < s.cfg.End {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if result.StepsTaken >= s.cfg.MaxSteps {
			s.phase = Fatal
			return result, &dynsys.StepError{
				Step: result.StepsTaken, Time: t,
				Wrapped: fmt.Errorf("%w: step ceiling %d reached", dynsys.ErrDiverged, s.cfg.MaxSteps),
			}
		}

		if t+h > s.cfg.End {
			h = s.cfg.End - t
		}

		xnew, hNext, err := s.propose(t, h, xs, result)
		if err != nil {
			s.phase = Fatal
			return result, &dynsys.StepError{Step: result.StepsTaken, Time: t, Wrapped: err}
		}

		s.phase = Accepted
		t += h
		xs = xnew
		h = hNext
		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.States = append(result.States, cloneAll(xs))

		if err := s.path.Record(t, xs); err != nil {
			s.phase = Fatal
			return result, &dynsys.StepError{Step: result.StepsTaken, Time: t, Wrapped: err}
		}
	}

	s.phase = Idle
	return result, nil
}

// propose computes one accepted trial step from (t, xs), shrinking the
// step on rejection or nonconvergence until the retry budget runs out.
// The caller's state is never mutated by rejected trials.
func (s *Stepper) propose(t, h float64, xs []dynsys.State, result *Result) ([]dynsys.State, float64, error) {
	for retry := 0; ; retry++ {
		s.phase = Proposing
		if retry > s.cfg.MaxRetries {
			return nil, 0, fmt.Errorf("%w: retry budget exhausted at t=%g", dynsys.ErrDiverged, t)
		}
		if h < s.cfg.MinStep {
			return nil, 0, dynsys.ErrStepTooSmall
		}

		xnew, errEst, err := s.trial(t, h, xs)
		if err != nil {
			if errors.Is(err, dynsys.ErrNonconvergence) {
				// Transient: halve and retry from the same state.
				s.phase = Rejected
				result.StepsRejected++
				h /= 2
				continue
			}
			return nil, 0, err
		}

		if !valid(xnew) {
			return nil, 0, dynsys.ErrDiverged
		}

		if !s.cfg.Adaptive || s.path.Discrete() {
			return xnew, h, nil
		}

		accept, hNext := s.ctrl.decide(h, errEst, s.cfg)
		if !accept {
			s.phase = Rejected
			result.StepsRejected++
			h = hNext
			continue
		}
		return xnew, hNext, nil
	}
}

// trial takes one full step and two half steps and compares them: the
// difference of the two discretizations is the local error estimate.
// Discrete constituents are excluded from the estimate and keep the
// single full-step result, one map iteration per accepted step.
func (s *Stepper) trial(t, h float64, xs []dynsys.State) ([]dynsys.State, float64, error) {
	full, err := s.path.Step(t, h, xs)
	if err != nil {
		return nil, 0, err
	}
	if !s.cfg.Adaptive || s.path.Discrete() {
		return full, 0, nil
	}

	half, err := s.path.Step(t, h/2, xs)
	if err != nil {
		return nil, 0, err
	}
	fine, err := s.path.Step(t+h/2, h/2, half)
	if err != nil {
		return nil, 0, err
	}

	errEst := 0.0
	out := make([]dynsys.State, len(full))
	for i := range full {
		if dynsys.IsDiscrete(s.path.System(i)) {
			out[i] = full[i]
			continue
		}
		out[i] = fine[i]
		for j := range full[i] {
			scale := math.Abs(xs[i][j]) + math.Abs(full[i][j]) + 1e-10
			e := math.Abs(full[i][j]-fine[i][j]) / scale
			if e > errEst {
				errEst = e
			}
		}
	}
	return out, errEst, nil
}

// RunWithCallback marches like Run but streams each accepted sample to
// callback instead of accumulating a trajectory; returning false from
// the callback stops the run early without error.
func (s *Stepper) RunWithCallback(ctx context.Context, x0 []dynsys.State, callback func(t float64, xs []dynsys.State) bool) error {
	if err := s.validate(x0); err != nil {
		return err
	}

	t := s.cfg.Start
	xs := cloneAll(x0)
	h := s.cfg.InitialStep
	if s.path.Discrete() {
		h = 1
	}
	scratch := &Result{}

	if !callback(t, xs) {
		return nil
	}
	if err := s.path.Record(t, xs); err != nil {
		return err
	}
	s.ctrl.reset()

	for t < s.cfg.End {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if scratch.StepsTaken >= s.cfg.MaxSteps {
			return fmt.Errorf("%w: step ceiling %d reached", dynsys.ErrDiverged, s.cfg.MaxSteps)
		}
		if !s.path.Discrete() && t+h > s.cfg.End {
			h = s.cfg.End - t
		}

		xnew, hNext, err := s.propose(t, h, xs, scratch)
		if err != nil {
			return &dynsys.StepError{Step: scratch.StepsTaken, Time: t, Wrapped: err}
		}

		t += h
		xs = xnew
		h = hNext
		scratch.StepsTaken++

		if !callback(t, xs) {
			return nil
		}
		if err := s.path.Record(t, xs); err != nil {
			return err
		}
	}
	return nil
}

// runDiscrete marches a pure map composition: h fixed at one iteration,
// every step accepted, no error control.
func (s *Stepper) runDiscrete(ctx context.Context, x0 []dynsys.State) (*Result, error) {
	xs := cloneAll(x0)
	result := &Result{}
	result.Times = append(result.Times, s.cfg.Start)
	result.States = append(result.States, cloneAll(xs))

	steps := int(s.cfg.End - s.cfg.Start)
	for k := 0; k < steps; k++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		t := s.cfg.Start + float64(k)
		xnew, err := s.path.Step(t, 1, xs)
		if err != nil {
			s.phase = Fatal
			return result, &dynsys.StepError{Step: k, Time: t, Wrapped: err}
		}
		xs = xnew
		s.phase = Accepted
		result.StepsTaken++
		result.Times = append(result.Times, t+1)
		result.States = append(result.States, cloneAll(xs))
	}
	s.phase = Idle
	return result, nil
}

func cloneAll(xs []dynsys.State) []dynsys.State {
	out := make([]dynsys.State, len(xs))
	for i := range xs {
		out[i] = xs[i].Clone()
	}
	return out
}

func valid(xs []dynsys.State) bool {
	for _, x := range xs {
		if !x.IsValid() {
			return false
		}
	}
	return true
}
