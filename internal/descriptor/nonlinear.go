package descriptor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/dynsys"
)

const (
	newtonTol     = 1e-10
	newtonMaxIter = 50
)

// Residual is F(t, x, v) where v approximates x'; a root of F defines
// the state. Jacobians are with respect to x and v.
type Residual func(t float64, x, v dynsys.State, input dynsys.State) dynsys.State

type Jacobian func(t float64, x, v dynsys.State) *mat.Dense

// Nonlinear is a nonlinear descriptor system F(t, x, x') = 0 advanced
// by backward Euler, the step solved by Newton iteration on
//
//	G(x1) = F(t+h, x1, (x1-x)/h)
//
// with iteration matrix Jx + Jv/h. Nonconvergence is transient
// (dynsys.ErrNonconvergence): the stepper retries with a smaller step.
type Nonlinear struct {
	N  int
	F  Residual
	Jx Jacobian
	Jv Jacobian
}

func NewNonlinear(n int, f Residual, jx, jv Jacobian) *Nonlinear {
	return &Nonlinear{N: n, F: f, Jx: jx, Jv: jv}
}

func (s *Nonlinear) Dim() int { return s.N }

func (s *Nonlinear) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if len(x) != s.N {
		return nil, dynsys.ErrDimensionMismatch
	}
	var input dynsys.State
	if in != nil {
		input = in.New
	}

	t1 := t + h
	x1 := x.Clone()
	v := make(dynsys.State, s.N)

	for iter := 0; iter < newtonMaxIter; iter++ {
		for i := range v {
			v[i] = (x1[i] - x[i]) / h
		}
		r := s.F(t1, x1, v, input)

		j := mat.NewDense(s.N, s.N, nil)
		jx := s.Jx(t1, x1, v)
		jv := s.Jv(t1, x1, v)
		for i := 0; i < s.N; i++ {
			for k := 0; k < s.N; k++ {
				j.Set(i, k, jx.At(i, k)+jv.At(i, k)/h)
			}
		}

		var lu mat.LU
		lu.Factorize(j)
		dx := mat.NewVecDense(s.N, nil)
		if err := lu.SolveVecTo(dx, false, mat.NewVecDense(s.N, r)); err != nil {
			return nil, dynsys.ErrSingularIteration
		}

		norm := 0.0
		for i := 0; i < s.N; i++ {
			x1[i] -= dx.AtVec(i)
			d := dx.AtVec(i)
			norm += d * d
		}
		if !x1.IsValid() {
			return nil, dynsys.ErrDiverged
		}
		if norm < newtonTol*newtonTol {
			return x1, nil
		}
	}
	return nil, dynsys.ErrNonconvergence
}
