// Package discrete implements dynamical systems with no continuous
// time variable: the state evolves by one map iteration per step.
package discrete

import "github.com/davner/daesim/internal/dynsys"

// Map is a discrete dynamical system x[k+1] = g(k, x[k]). Its step is
// one map iteration regardless of the requested size, it is always
// accepted, and it bypasses continuous error control. The generated
// sequence is deterministic: repeated runs from the same seed state
// reproduce it bit for bit.
type Map struct {
	N int
	G func(k int, x dynsys.State) dynsys.State
}

func NewMap(n int, g func(k int, x dynsys.State) dynsys.State) *Map {
	return &Map{N: n, G: g}
}

func (m *Map) Dim() int       { return m.N }
func (m *Map) Discrete() bool { return true }

func (m *Map) Step(t, h float64, x dynsys.State, in *dynsys.Inputs) (dynsys.State, error) {
	if len(x) != m.N {
		return nil, dynsys.ErrDimensionMismatch
	}
	return m.G(int(t), x), nil
}

// Logistic returns the logistic map x <- mu*x*(1-x).
func Logistic(mu float64) *Map {
	return NewMap(1, func(_ int, x dynsys.State) dynsys.State {
		return dynsys.State{mu * x[0] * (1 - x[0])}
	})
}
