package descriptor

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/dynsys"
)

// Constrained is a Linear with some degrees of freedom fixed to known
// values. Reconstitute embeds a reduced state back into the full
// ordering.
type Constrained struct {
	*Linear
	free   []int
	known  []int
	xknown []float64
}

// Constrain returns a new system with the listed degrees of freedom
// held at xknown (zeros if nil). The reduced operators are the free
// rows and columns of M and D; the forcing absorbs the load carried by
// the fixed values, f' = f_free - D[free, known] xknown.
func (s *Linear) Constrain(known []int, xknown []float64) *Constrained {
	n := s.Dim()
	if xknown == nil {
		xknown = make([]float64, len(known))
	}

	fixed := make(map[int]bool, len(known))
	for _, k := range known {
		fixed[k] = true
	}
	free := make([]int, 0, n-len(known))
	for i := 0; i < n; i++ {
		if !fixed[i] {
			free = append(free, i)
		}
	}
	sort.Ints(free)

	nf := len(free)
	mm := mat.NewDense(nf, nf, nil)
	dd := mat.NewDense(nf, nf, nil)
	for i, r := range free {
		for j, c := range free {
			mm.Set(i, j, s.M.At(r, c))
			dd.Set(i, j, s.D.At(r, c))
		}
	}

	outer := s.F
	f := func(t float64, input dynsys.State) dynsys.State {
		full := make(dynsys.State, n)
		if outer != nil {
			full = outer(t, input)
		}
		out := make(dynsys.State, nf)
		for i, r := range free {
			out[i] = full[r]
			for j, k := range known {
				out[i] -= s.D.At(r, k) * xknown[j]
			}
		}
		return out
	}

	return &Constrained{
		Linear: NewLinear(mm, dd, f, s.Theta),
		free:   free,
		known:  known,
		xknown: xknown,
	}
}

// Reconstitute expands a reduced state to the original ordering,
// filling fixed degrees of freedom with their known values.
func (c *Constrained) Reconstitute(x dynsys.State) dynsys.State {
	full := make(dynsys.State, len(c.free)+len(c.known))
	for i, r := range c.free {
		full[r] = x[i]
	}
	for j, k := range c.known {
		full[k] = c.xknown[j]
	}
	return full
}
