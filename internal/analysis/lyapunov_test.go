package analysis

import (
	"math"
	"testing"

	"github.com/davner/daesim/internal/discrete"
	"github.com/davner/daesim/internal/dynsys"
)

func TestLyapunovLogisticChaotic(t *testing.T) {
	// At mu=4 the logistic map is fully chaotic with exponent ln 2.
	m := discrete.Logistic(4)
	lambda := LyapunovExponent(m, dynsys.State{0.2}, 10000, 1e-9)

	if math.Abs(lambda-math.Ln2) > 0.05 {
		t.Errorf("lambda at mu=4: got %v, want ~%v", lambda, math.Ln2)
	}
}

func TestLyapunovLogisticStable(t *testing.T) {
	// At mu=2 the orbit falls onto the fixed point 0.5; nearby orbits
	// converge and the exponent is negative.
	m := discrete.Logistic(2)
	lambda := LyapunovExponent(m, dynsys.State{0.2}, 2000, 1e-9)

	if lambda >= 0 {
		t.Errorf("lambda at mu=2: got %v, want negative", lambda)
	}
}

func TestLyapunovDegenerateInputs(t *testing.T) {
	m := discrete.Logistic(4)
	if got := LyapunovExponent(m, dynsys.State{}, 100, 1e-9); got != 0 {
		t.Errorf("empty state: got %v", got)
	}
	if got := LyapunovExponent(m, dynsys.State{0.2}, 0, 1e-9); got != 0 {
		t.Errorf("zero iterations: got %v", got)
	}
}
