package descriptor

import (
	"math"

	"github.com/davner/daesim/internal/dynsys"
)

// AlgebraicSys reacts instantaneously to time and inputs: it carries no
// integrable state and needs no initial condition. Useful as a gain or
// sensor stage in a signal-flow path.
type AlgebraicSys struct {
	N    int
	Eval func(t float64, x dynsys.State, input dynsys.State) dynsys.State
}

func NewAlgebraicSys(n int, eval func(t float64, x, input dynsys.State) dynsys.State) *AlgebraicSys {
	return &AlgebraicSys{N: n, Eval: eval}
}

func (s *AlgebraicSys) Dim() int        { return s.N }
func (s *AlgebraicSys) Algebraic() bool { return true }

func (s *AlgebraicSys) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	var input dynsys.State
	if in != nil {
		input = in.New
	}
	return s.Eval(t+h, x, input), nil
}

func (s *AlgebraicSys) Equilibrium(x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if x == nil {
		x = make(dynsys.State, s.N)
	}
	var input dynsys.State
	if in != nil {
		input = in.New
	}
	return s.Eval(math.Inf(1), x, input), nil
}
