// Package scenarios provides the built-in example systems used by the
// CLI and the test suite.
package scenarios

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/davner/daesim/internal/delay"
	"github.com/davner/daesim/internal/descriptor"
	"github.com/davner/daesim/internal/discrete"
	"github.com/davner/daesim/internal/dynsys"
	"github.com/davner/daesim/internal/flow"
)

// Tanks builds the two-compartment mixing problem (Fulford, Forrester &
// Jones 1997, p. 359): a fed upstream tank whose concentration drives a
// downstream tank,
//
//	c0' + 0.04 c0 = 0.01
//	c1' + 0.05 c1 = c0 / 25
//
// The upstream closed form is c0(t) = (1 - e^(-t/25)) / 4.
func Tanks() (*flow.Path, []dynsys.State, error) {
	upstream := descriptor.NewScalar(1, 0.04,
		func(t, _ float64) float64 { return 0.01 }, 0.5)
	downstream := descriptor.NewScalar(1, 0.05,
		func(_, y float64) float64 { return y / 25 }, 0.5)

	g := flow.NewGraph()
	a := g.Add("tank0", upstream)
	b := g.Add("tank1", downstream)
	if err := g.Couple(a, b, flow.Identity); err != nil {
		return nil, nil, err
	}
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{{0}, {0}}, nil
}

// TanksExact is the closed-form upstream concentration.
func TanksExact(t float64) float64 {
	return (1 - math.Exp(-t/25)) / 4
}

// Logistic builds the map x <- mu*x*(1-x) from x0.
func Logistic(mu, x0 float64) (*flow.Path, []dynsys.State, error) {
	g := flow.NewGraph()
	g.Add("logistic", discrete.Logistic(mu))
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{{x0}}, nil
}

// DelaySine builds Driver's example 1 delay equation
//
//	x'(t) = -x(t - pi/2)
//
// with history x(t) = sin t on (-pi/2, 0), whose exact solution
// continues as sin t for t > 0.
func DelaySine() (*flow.Path, []dynsys.State, error) {
	tau := math.Pi / 2
	sys := delay.New(1, tau,
		func(_ float64, _, delayed dynsys.State) dynsys.State {
			return dynsys.State{-delayed[0]}
		},
		func(t float64) dynsys.State {
			return dynsys.State{math.Sin(t)}
		})

	g := flow.NewGraph()
	g.Add("driver", sys)
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{{0}}, nil
}

// Decay builds the one-degree-of-freedom test system tau x' + x = 0,
// which decays exponentially with timescale tau.
func Decay(tau float64) (*flow.Path, []dynsys.State, error) {
	g := flow.NewGraph()
	g.Add("decay", descriptor.NewScalar(tau, 1, nil, 1.0))
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{{1}}, nil
}

// Conduit builds a lumped hydraulic line RC dp/dt + p = pIn: serial
// resistance and shunt compliance with fixed inlet pressure. theta
// selects the discretization (1 backward Euler, 0.5 trapezoidal).
func Conduit(r, c, pIn, theta float64) (*flow.Path, []dynsys.State, error) {
	g := flow.NewGraph()
	g.Add("conduit", descriptor.NewScalar(r*c, 1,
		func(_, _ float64) float64 { return pIn }, theta))
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{{0}}, nil
}

// Oscillator builds the single-mass structural system
//
//	x'' + 2 zeta omega x' + omega^2 x = 0
//
// advanced by the average-acceleration Newmark scheme, released from
// unit displacement at rest. Undamped (zeta = 0) it vibrates at
// constant amplitude; damped it decays at rate zeta*omega.
func Oscillator(omega, zeta float64) (*flow.Path, []dynsys.State, error) {
	m := mat.NewDense(1, 1, []float64{1})
	c := mat.NewDense(1, 1, []float64{2 * zeta * omega})
	k := mat.NewDense(1, 1, []float64{omega * omega})
	sys := descriptor.AverageAcceleration(m, c, k, nil)

	x0, err := sys.InitialState(0, dynsys.State{1}, dynsys.State{0}, nil)
	if err != nil {
		return nil, nil, err
	}

	g := flow.NewGraph()
	g.Add("oscillator", sys)
	path, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return path, []dynsys.State{x0}, nil
}

// Ladder builds an n-section lumped transmission line driven by a unit
// inlet potential. The inlet row is algebraic (zero mass row), so the
// assembled system is a genuine descriptor system: state is
// [v0, v1, ..., vn] with
//
//	v0 = 1                      (algebraic constraint)
//	C vi' = (v(i-1) - vi)/R - (vi - v(i+1))/R
//
// and an open far end.
func Ladder(n int, r, c float64) (*flow.Path, []dynsys.State, *descriptor.Linear, error) {
	dim := n + 1
	m := mat.NewDense(dim, dim, nil)
	d := mat.NewDense(dim, dim, nil)

	// Algebraic inlet: 1*v0 = 1, no mass.
	d.Set(0, 0, 1)
	for i := 1; i < dim; i++ {
		m.Set(i, i, c)
		d.Set(i, i-1, -1/r)
		d.Set(i, i, 2/r)
		if i == dim-1 {
			d.Set(i, i, 1/r)
		} else {
			d.Set(i, i+1, -1/r)
		}
	}

	f := func(_ float64, _ dynsys.State) dynsys.State {
		out := make(dynsys.State, dim)
		out[0] = 1
		return out
	}

	sys := descriptor.NewLinear(m, d, f, 1.0)
	g := flow.NewGraph()
	g.Add("ladder", sys)
	path, err := g.Compile()
	if err != nil {
		return nil, nil, nil, err
	}
	x0 := make(dynsys.State, dim)
	x0[0] = 1
	return path, []dynsys.State{x0}, sys, nil
}
