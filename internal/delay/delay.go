// Package delay implements delay-differential systems whose residual
// depends on the state at t and at t - tau for a fixed delay tau.
package delay

import (
	"github.com/davner/daesim/internal/dynsys"
	"github.com/davner/daesim/internal/history"
)

const (
	fixedPointTol     = 1e-12
	fixedPointMaxIter = 100
)

// RHS is the right-hand side of x'(t) = f(t, x(t), x(t-tau)).
type RHS func(t float64, x, delayed dynsys.State) dynsys.State

// System is a delay-differential system advanced by an implicit
// first-order (backward Euler) scheme:
//
//	x1 = x + h f(t+h, x1, x(t+h-tau))
//
// The delayed state comes from the system's history buffer, which the
// stepper appends to after every accepted step; for times before the
// simulation start the buffer falls back to the initial history
// function supplied at construction. The system itself never stores
// trajectory: that lives in the buffer alone.
type System struct {
	N    int
	Tau  float64
	F    RHS
	hist *history.Buffer
}

// New constructs a delay system with delay tau and initial history
// function initial, which must cover (t0-tau, t0).
func New(n int, tau float64, f RHS, initial history.InitialFunc) *System {
	buf := history.New(tau)
	buf.SetInitial(initial)
	return &System{N: n, Tau: tau, F: f, hist: buf}
}

func (s *System) Dim() int          { return s.N }
func (s *System) MaxDelay() float64 { return s.Tau }

// History exposes the buffer for recording by the stepper and for
// inspection in tests.
func (s *System) History() *history.Buffer { return s.hist }

// Record appends an accepted sample to the history buffer and prunes
// samples older than the delay horizon.
func (s *System) Record(t float64, x dynsys.State) error {
	if err := s.hist.Record(t, x); err != nil {
		return err
	}
	s.hist.Prune()
	return nil
}

func (s *System) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if len(x) != s.N {
		return nil, dynsys.ErrDimensionMismatch
	}
	// A step larger than the delay needs state newer than any recorded
	// sample; shrink and retry rather than extrapolate.
	if h > s.Tau {
		return nil, dynsys.ErrNonconvergence
	}

	t1 := t + h
	delayed, err := s.hist.At(t1 - s.Tau)
	if err != nil {
		return nil, err
	}

	// Fixed-point iteration on the backward Euler update.
	x1 := x.Clone()
	for iter := 0; iter < fixedPointMaxIter; iter++ {
		fx := s.F(t1, x1, delayed)
		next := make(dynsys.State, s.N)
		diff := 0.0
		for i := range next {
			next[i] = x[i] + h*fx[i]
			d := next[i] - x1[i]
			diff += d * d
		}
		x1 = next
		if !x1.IsValid() {
			return nil, dynsys.ErrDiverged
		}
		if diff < fixedPointTol*fixedPointTol {
			return x1, nil
		}
	}
	return nil, dynsys.ErrNonconvergence
}
