package descriptor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/dynsys"
)

// Harmonic returns the complex steady response X to forcing F e^(i w t)
// for each circular frequency, solving (D + i w M) X = F. The complex
// system is solved as the equivalent real block system
//
//	[ D  -wM ] [Re X]   [F]
//	[ wM   D ] [Im X] = [0]
func (s *Linear) Harmonic(omega []float64) ([][]complex128, error) {
	n := s.Dim()
	f := s.forcing(0, nil)

	out := make([][]complex128, len(omega))
	for k, w := range omega {
		a := mat.NewDense(2*n, 2*n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a.Set(i, j, s.D.At(i, j))
				a.Set(i, n+j, -w*s.M.At(i, j))
				a.Set(n+i, j, w*s.M.At(i, j))
				a.Set(n+i, n+j, s.D.At(i, j))
			}
		}
		rhs := mat.NewVecDense(2*n, nil)
		for i := 0; i < n; i++ {
			rhs.SetVec(i, f[i])
		}

		var lu mat.LU
		lu.Factorize(a)
		sol := mat.NewVecDense(2*n, nil)
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			return nil, dynsys.ErrSingularIteration
		}

		x := make([]complex128, n)
		for i := 0; i < n; i++ {
			x[i] = complex(sol.AtVec(i), sol.AtVec(n+i))
		}
		out[k] = x
	}
	return out, nil
}
