package descriptor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/dynsys"
)

// zeroTol decides when a mass-matrix row or column counts as
// structurally zero, i.e. an algebraic constraint.
const zeroTol = 1e-14

// Forcing is the right-hand side f(t) of a linear system, optionally
// depending on an upstream input signal. input is nil for systems with
// no incoming coupling edge.
type Forcing func(t float64, input dynsys.State) dynsys.State

// Linear is a linear descriptor system
//
//	M x' + D x = f(t, input)
//
// advanced by the theta method. M may be singular: rows of M that are
// zero encode algebraic constraints rather than true derivatives. The
// pencil must still be regular, i.e. M/h + theta*D invertible for
// positive h; a singular iteration matrix surfaces as
// dynsys.ErrSingularIteration rather than a degenerate solution.
//
// Theta selects the discretization: 1 backward Euler, 0.5 trapezoidal.
type Linear struct {
	M, D  *mat.Dense
	F     Forcing
	Theta float64

	// Factorization memo, reused while the step size is unchanged.
	memoH  float64
	memoLU *mat.LU
	memoB  *mat.Dense
}

// NewLinear constructs a Linear system from n-by-n mass and damping
// operators. f may be nil for an unforced system.
func NewLinear(m, d *mat.Dense, f Forcing, theta float64) *Linear {
	return &Linear{M: m, D: d, F: f, Theta: theta}
}

func (s *Linear) Dim() int {
	r, _ := s.D.Dims()
	return r
}

func (s *Linear) forcing(t float64, input dynsys.State) dynsys.State {
	if s.F == nil {
		return make(dynsys.State, s.Dim())
	}
	return s.F(t, input)
}

// factorize assembles and factors the iteration matrix M/h + theta*D
// and the companion M/h - (1-theta)*D, memoizing both while h is
// unchanged (so a run at constant step factors once).
func (s *Linear) factorize(h float64) error {
	if s.memoLU != nil && h == s.memoH {
		return nil
	}
	n := s.Dim()
	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			mh := s.M.At(i, j) / h
			a.Set(i, j, mh+s.Theta*s.D.At(i, j))
			b.Set(i, j, mh-(1-s.Theta)*s.D.At(i, j))
		}
	}
	var lu mat.LU
	lu.Factorize(a)
	if lu.Cond() > 1/zeroTol || math.IsInf(lu.Cond(), 0) || math.IsNaN(lu.Cond()) {
		return dynsys.ErrSingularIteration
	}
	s.memoH, s.memoLU, s.memoB = h, &lu, b
	return nil
}

// Step solves the theta-method update
//
//	(M/h + theta*D) x1 = (M/h - (1-theta)*D) x + theta*f(t+h) + (1-theta)*f(t)
//
// returning the state at t+h.
func (s *Linear) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	n := s.Dim()
	if len(x) != n {
		return nil, dynsys.ErrDimensionMismatch
	}
	if err := s.factorize(h); err != nil {
		return nil, err
	}

	var inOld, inNew dynsys.State
	if in != nil {
		inOld, inNew = in.Old, in.New
	}
	fTheta := (&dynsys.Inputs{
		Old: s.forcing(t, inOld),
		New: s.forcing(t+h, inNew),
	}).Blend(s.Theta)

	rhs := mat.NewVecDense(n, nil)
	rhs.MulVec(s.memoB, mat.NewVecDense(n, x))
	for i := 0; i < n; i++ {
		rhs.SetVec(i, rhs.AtVec(i)+fTheta[i])
	}

	sol := mat.NewVecDense(n, nil)
	if err := s.memoLU.SolveVecTo(sol, false, rhs); err != nil {
		return nil, dynsys.ErrSingularIteration
	}

	out := make(dynsys.State, n)
	for i := 0; i < n; i++ {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

// Equilibrium solves the steady state D x = f(inf, input).
func (s *Linear) Equilibrium(_ dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	n := s.Dim()
	var input dynsys.State
	if in != nil {
		input = in.New
	}
	f := s.forcing(math.Inf(1), input)

	var lu mat.LU
	lu.Factorize(s.D)
	sol := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(sol, false, mat.NewVecDense(n, f)); err != nil {
		return nil, dynsys.ErrSingularIteration
	}
	out := make(dynsys.State, n)
	for i := 0; i < n; i++ {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

// IsIndexOne reports whether direct implicit solution is well-posed
// without constraint stabilization: the algebraic rows of D, restricted
// to the algebraic variables, must form a nonsingular block. A system
// with nonsingular M (no algebraic rows) is index zero and also
// acceptable.
func (s *Linear) IsIndexOne() bool {
	n := s.Dim()
	algRows := make([]int, 0, n)
	algCols := make([]int, 0, n)
	for i := 0; i < n; i++ {
		rowZero, colZero := true, true
		for j := 0; j < n; j++ {
			if math.Abs(s.M.At(i, j)) > zeroTol {
				rowZero = false
			}
			if math.Abs(s.M.At(j, i)) > zeroTol {
				colZero = false
			}
		}
		if rowZero {
			algRows = append(algRows, i)
		}
		if colZero {
			algCols = append(algCols, i)
		}
	}
	if len(algRows) == 0 && len(algCols) == 0 {
		return true
	}
	if len(algRows) != len(algCols) {
		return false
	}
	k := len(algRows)
	block := mat.NewDense(k, k, nil)
	for i, r := range algRows {
		for j, c := range algCols {
			block.Set(i, j, s.D.At(r, c))
		}
	}
	var lu mat.LU
	lu.Factorize(block)
	cond := lu.Cond()
	return !math.IsInf(cond, 0) && !math.IsNaN(cond) && cond < 1/zeroTol
}
