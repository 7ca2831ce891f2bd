package descriptor

import (
	"math"

	"github.com/davner/daesim/internal/dynsys"
)

// ScalarForcing is the right-hand side of a one-degree-of-freedom
// system; input is 0 for systems with no incoming coupling edge.
type ScalarForcing func(t float64, input float64) float64

// Scalar is a one-degree-of-freedom linear descriptor system
//
//	M x' + D x = f(t, input)
//
// Keeps simple demonstrations simple: no 1x1 matrices to set up.
type Scalar struct {
	M, D  float64
	F     ScalarForcing
	Theta float64
}

func NewScalar(m, d float64, f ScalarForcing, theta float64) *Scalar {
	return &Scalar{M: m, D: d, F: f, Theta: theta}
}

func (s *Scalar) Dim() int { return 1 }

func (s *Scalar) forcing(t, input float64) float64 {
	if s.F == nil {
		return 0
	}
	return s.F(t, input)
}

// Step returns the theta-method update in closed form:
//
//	x1 = (theta*f1 + (1-theta)*f0 + (M/h - (1-theta)*D) x) / (M/h + theta*D)
func (s *Scalar) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if len(x) != 1 {
		return nil, dynsys.ErrDimensionMismatch
	}
	var inOld, inNew float64
	if in != nil {
		if len(in.Old) > 0 {
			inOld = in.Old[0]
		}
		if len(in.New) > 0 {
			inNew = in.New[0]
		}
	}
	f0 := s.forcing(t, inOld)
	f1 := s.forcing(t+h, inNew)

	den := s.M/h + s.Theta*s.D
	if den == 0 || math.IsNaN(den) {
		return nil, dynsys.ErrSingularIteration
	}
	x1 := (s.Theta*f1 + (1-s.Theta)*f0 + (s.M/h-(1-s.Theta)*s.D)*x[0]) / den
	return dynsys.State{x1}, nil
}

// Equilibrium solves the steady state D x = f(inf, input).
func (s *Scalar) Equilibrium(_ dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if s.D == 0 {
		return nil, dynsys.ErrSingularIteration
	}
	var input float64
	if in != nil && len(in.New) > 0 {
		input = in.New[0]
	}
	return dynsys.State{s.forcing(math.Inf(1), input) / s.D}, nil
}

// IsIndexOne reports well-posedness of the implicit step: with M = 0
// the single equation is algebraic and needs D nonzero.
func (s *Scalar) IsIndexOne() bool {
	if s.M != 0 {
		return true
	}
	return s.D != 0
}

// Harmonic returns the complex amplitude of the response to forcing
// F e^(i w t) for each circular frequency: X = F / (D + i w M).
func (s *Scalar) Harmonic(omega []float64) []complex128 {
	f := complex(s.forcing(0, 0), 0)
	out := make([]complex128, len(omega))
	for i, w := range omega {
		out[i] = f / (complex(s.D, 0) + complex(0, w*s.M))
	}
	return out
}
