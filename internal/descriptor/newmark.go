package descriptor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/dynsys"
)

// Newmark advances the structural second-order system
//
//	M x'' + C x' + K x = f(t)
//
// with the Newmark-beta family, generalized by the Hilber-Hughes-Taylor
// alpha parameter: Alpha = 0 recovers the classical Newmark method,
// Alpha in [-1/3, 0) adds numerical damping of the poorly resolved high
// frequencies without degrading second-order accuracy (Hughes 2000,
// p. 532).
//
// The state is the concatenation [x, v, a] of displacement, velocity
// and acceleration; [Newmark.InitialState] assembles it from a
// displacement/velocity pair.
type Newmark struct {
	M, C, K *mat.Dense
	F       Forcing
	Beta    float64
	Gamma   float64
	Alpha   float64

	// Factorization memos: the iteration matrix per step size, and the
	// mass operator for consistent initial accelerations.
	memoH  float64
	memoLU *mat.LU
	massLU *mat.LU
}

// NewNewmark constructs the second-order system from n-by-n mass,
// damping and stiffness operators. f may be nil for free vibration.
func NewNewmark(m, c, k *mat.Dense, f Forcing, beta, gamma float64) *Newmark {
	return &Newmark{M: m, C: c, K: k, F: f, Beta: beta, Gamma: gamma}
}

// Special cases, as per Hughes (2000, Table 9.1.1, p. 493).

// AverageAcceleration is the implicit, unconditionally stable
// trapezoidal member of the family (beta 1/4, gamma 1/2).
func AverageAcceleration(m, c, k *mat.Dense, f Forcing) *Newmark {
	return NewNewmark(m, c, k, f, 0.25, 0.5)
}

func LinearAcceleration(m, c, k *mat.Dense, f Forcing) *Newmark {
	return NewNewmark(m, c, k, f, 1.0/6, 0.5)
}

func FoxGoodwin(m, c, k *mat.Dense, f Forcing) *Newmark {
	return NewNewmark(m, c, k, f, 1.0/12, 0.5)
}

func CentralDifference(m, c, k *mat.Dense, f Forcing) *Newmark {
	return NewNewmark(m, c, k, f, 0, 0.5)
}

// NewHHT constructs a Hilber-Hughes-Taylor (alpha-method) system;
// alpha should be in [-1/3, 0]. Beta and gamma follow from alpha so
// the method stays second-order accurate.
func NewHHT(m, c, k *mat.Dense, f Forcing, alpha float64) *Newmark {
	s := NewNewmark(m, c, k, f, (1-alpha)*(1-alpha)/4, (1-2*alpha)/2)
	s.Alpha = alpha
	return s
}

func (s *Newmark) n() int {
	r, _ := s.K.Dims()
	return r
}

func (s *Newmark) Dim() int { return 3 * s.n() }

func (s *Newmark) forcing(t float64, input dynsys.State) dynsys.State {
	if s.F == nil {
		return make(dynsys.State, s.n())
	}
	return s.F(t, input)
}

// factorize assembles and factors the iteration matrix
// M + (1+alpha) h (gamma C + beta h K), memoized while h is unchanged.
func (s *Newmark) factorize(h float64) error {
	if s.memoLU != nil && h == s.memoH {
		return nil
	}
	n := s.n()
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, s.M.At(i, j)+
				(1+s.Alpha)*h*(s.Gamma*s.C.At(i, j)+s.Beta*h*s.K.At(i, j)))
		}
	}
	var lu mat.LU
	lu.Factorize(a)
	if lu.Cond() > 1/zeroTol || math.IsInf(lu.Cond(), 0) || math.IsNaN(lu.Cond()) {
		return dynsys.ErrSingularIteration
	}
	s.memoH, s.memoLU = h, &lu
	return nil
}

func (s *Newmark) factorizeMass() error {
	if s.massLU != nil {
		return nil
	}
	var lu mat.LU
	lu.Factorize(s.M)
	if lu.Cond() > 1/zeroTol || math.IsInf(lu.Cond(), 0) || math.IsNaN(lu.Cond()) {
		return dynsys.ErrSingularIteration
	}
	s.massLU = &lu
	return nil
}

// Step advances [x, v, a]: predictors for displacement and velocity
// with the new acceleration unknown, then one solve
//
//	A a1 = (1+alpha) f1 - alpha f0 - C ((1+alpha)vt - alpha v) - K ((1+alpha)xt - alpha x)
//
// and the correctors v1 = vt + gamma h a1, x1 = xt + beta h^2 a1.
func (s *Newmark) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	n := s.n()
	if len(x) != 3*n {
		return nil, dynsys.ErrDimensionMismatch
	}
	if err := s.factorize(h); err != nil {
		return nil, err
	}

	d, v, a := x[:n], x[n:2*n], x[2*n:]

	xt := make(dynsys.State, n)
	vt := make(dynsys.State, n)
	for i := 0; i < n; i++ {
		xt[i] = d[i] + h*(v[i]+h*(0.5-s.Beta)*a[i])
		vt[i] = v[i] + (1-s.Gamma)*h*a[i]
	}

	var inOld, inNew dynsys.State
	if in != nil {
		inOld, inNew = in.Old, in.New
	}
	fOld := s.forcing(t, inOld)
	fNew := s.forcing(t+h, inNew)

	cArg := make(dynsys.State, n)
	kArg := make(dynsys.State, n)
	for i := 0; i < n; i++ {
		cArg[i] = (1+s.Alpha)*vt[i] - s.Alpha*v[i]
		kArg[i] = (1+s.Alpha)*xt[i] - s.Alpha*d[i]
	}
	cTerm := mulVec(s.C, cArg)
	kTerm := mulVec(s.K, kArg)

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, (1+s.Alpha)*fNew[i]-s.Alpha*fOld[i]-cTerm[i]-kTerm[i])
	}

	sol := mat.NewVecDense(n, nil)
	if err := s.memoLU.SolveVecTo(sol, false, rhs); err != nil {
		return nil, dynsys.ErrSingularIteration
	}

	out := make(dynsys.State, 3*n)
	for i := 0; i < n; i++ {
		a1 := sol.AtVec(i)
		out[i] = xt[i] + s.Beta*h*h*a1
		out[n+i] = vt[i] + s.Gamma*h*a1
		out[2*n+i] = a1
	}
	return out, nil
}

// InitialState assembles the [x, v, a] state from a displacement and
// velocity at time t, with the acceleration from the consistency
// condition M a = f(t) - C v - K x.
func (s *Newmark) InitialState(t float64, x, v dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	n := s.n()
	if len(x) != n || len(v) != n {
		return nil, dynsys.ErrDimensionMismatch
	}
	if err := s.factorizeMass(); err != nil {
		return nil, err
	}

	var input dynsys.State
	if in != nil {
		input = in.Old
	}
	f := s.forcing(t, input)
	cv := mulVec(s.C, v)
	kx := mulVec(s.K, x)

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, f[i]-cv[i]-kx[i])
	}
	sol := mat.NewVecDense(n, nil)
	if err := s.massLU.SolveVecTo(sol, false, rhs); err != nil {
		return nil, dynsys.ErrSingularIteration
	}

	out := make(dynsys.State, 3*n)
	copy(out[:n], x)
	copy(out[n:2*n], v)
	for i := 0; i < n; i++ {
		out[2*n+i] = sol.AtVec(i)
	}
	return out, nil
}

// Equilibrium solves the static problem K x = f(inf), with velocity
// and acceleration zero.
func (s *Newmark) Equilibrium(_ dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	n := s.n()
	var input dynsys.State
	if in != nil {
		input = in.New
	}
	f := s.forcing(math.Inf(1), input)

	var lu mat.LU
	lu.Factorize(s.K)
	sol := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(sol, false, mat.NewVecDense(n, f)); err != nil {
		return nil, dynsys.ErrSingularIteration
	}

	out := make(dynsys.State, 3*n)
	for i := 0; i < n; i++ {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

func mulVec(a *mat.Dense, x dynsys.State) dynsys.State {
	n, _ := a.Dims()
	v := mat.NewVecDense(n, nil)
	v.MulVec(a, mat.NewVecDense(len(x), x))
	out := make(dynsys.State, n)
	for i := 0; i < n; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}
