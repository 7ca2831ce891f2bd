// Package analysis provides trajectory diagnostics.
package analysis

import (
	"math"

	"github.com/davner/daesim/internal/discrete"
	"github.com/davner/daesim/internal/dynsys"
)

// LyapunovExponent estimates the largest Lyapunov exponent of a
// discrete map using the trajectory separation method. A positive value
// indicates chaos.
//
// Algorithm:
//  1. Iterate two nearby orbits
//  2. Measure their divergence each iteration, renormalizing
//  3. lambda ~ mean of ln(|dx(k+1)| / |dx(k)|)
func LyapunovExponent(m *discrete.Map, x0 dynsys.State, iterations int, perturbation float64) float64 {
	if len(x0) == 0 || iterations <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	sumLog := 0.0
	count := 0

	for k := 0; k < iterations; k++ {
		x, _ = m.Step(float64(k), 1, x, nil)
		xp, _ = m.Step(float64(k), 1, xp, nil)

		sep := xp.Sub(x).Norm()
		if sep <= 0 {
			break
		}

		sumLog += math.Log(sep / d0)
		count++

		// Renormalize the perturbed orbit back to distance d0 along the
		// current separation direction.
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*d0/sep
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / float64(count)
}
