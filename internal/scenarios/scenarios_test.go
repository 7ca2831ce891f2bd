package scenarios

import (
	"math"
	"testing"

	"github.com/davner/daesim/internal/dynsys"
)

func TestTanksEquilibrium(t *testing.T) {
	path, x0, err := Tanks()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	eq, err := path.Equilibrium(x0)
	if err != nil {
		t.Fatalf("equilibrium: %v", err)
	}
	// c0 = 0.01/0.04, c1 = c0/25/0.05.
	if math.Abs(eq[0][0]-0.25) > 1e-12 {
		t.Errorf("upstream equilibrium: got %v, want 0.25", eq[0][0])
	}
	if math.Abs(eq[1][0]-0.2) > 1e-12 {
		t.Errorf("downstream equilibrium: got %v, want 0.2", eq[1][0])
	}
}

func TestScenarioDimensions(t *testing.T) {
	cases := []struct {
		name  string
		build func() (dims []int, err error)
	}{
		{"tanks", func() ([]int, error) {
			p, x0, err := Tanks()
			return dims(p.Len(), x0), err
		}},
		{"logistic", func() ([]int, error) {
			p, x0, err := Logistic(4, 0.2)
			return dims(p.Len(), x0), err
		}},
		{"delay_sine", func() ([]int, error) {
			p, x0, err := DelaySine()
			return dims(p.Len(), x0), err
		}},
		{"decay", func() ([]int, error) {
			p, x0, err := Decay(0.7)
			return dims(p.Len(), x0), err
		}},
		{"conduit", func() ([]int, error) {
			p, x0, err := Conduit(2, 3, 5, 0.5)
			return dims(p.Len(), x0), err
		}},
	}

	for _, tc := range cases {
		ds, err := tc.build()
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		for i, d := range ds {
			if d != 1 {
				t.Errorf("%s: constituent %d has dim %d, want 1", tc.name, i, d)
			}
		}
	}
}

func dims(n int, x0 []dynsys.State) []int {
	if n != len(x0) {
		return nil
	}
	out := make([]int, n)
	for i := range x0 {
		out[i] = len(x0[i])
	}
	return out
}

func TestLadderIsIndexOne(t *testing.T) {
	path, x0, sys, err := Ladder(4, 1, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !sys.IsIndexOne() {
		t.Error("ladder with algebraic inlet should be index one")
	}
	if path.Len() != 1 || len(x0[0]) != 5 {
		t.Errorf("4-section ladder should have one 5-dim constituent")
	}
	if x0[0][0] != 1 {
		t.Error("inlet potential should start on its constraint")
	}

	// At equilibrium every node sits at the inlet potential (open far end,
	// no shunt conductance).
	eq, err := path.Equilibrium(x0)
	if err != nil {
		t.Fatalf("equilibrium: %v", err)
	}
	for i, v := range eq[0] {
		if math.Abs(v-1) > 1e-10 {
			t.Errorf("node %d equilibrium: got %v, want 1", i, v)
		}
	}
}

func TestTanksExactMatchesODE(t *testing.T) {
	// Spot-check the closed form against the governing equation
	// c0' + 0.04 c0 = 0.01 by finite differences.
	for _, tt := range []float64{1, 10, 50} {
		h := 1e-6
		dc := (TanksExact(tt+h) - TanksExact(tt-h)) / (2 * h)
		residual := dc + 0.04*TanksExact(tt) - 0.01
		if math.Abs(residual) > 1e-8 {
			t.Errorf("closed form residual at t=%v: %v", tt, residual)
		}
	}
}

func TestOscillator(t *testing.T) {
	omega := 2 * math.Pi
	path, x0, err := Oscillator(omega, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if path.Len() != 1 || len(x0[0]) != 3 {
		t.Fatalf("expected one [x v a] constituent, got %d systems, dim %d",
			path.Len(), len(x0[0]))
	}
	// Released from unit displacement at rest: a0 = -omega^2 x0.
	if x0[0][0] != 1 || x0[0][1] != 0 {
		t.Errorf("initial displacement/velocity: got %v", x0[0][:2])
	}
	if math.Abs(x0[0][2]+omega*omega) > 1e-12 {
		t.Errorf("initial acceleration: got %v, want %v", x0[0][2], -omega*omega)
	}

	// One small step keeps the undamped energy.
	x1, err := path.Step(0, 1e-3, x0)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	e0 := omega * omega
	e1 := x1[0][1]*x1[0][1] + omega*omega*x1[0][0]*x1[0][0]
	if math.Abs(e1-e0) > 1e-9*e0 {
		t.Errorf("energy after one step: got %v, want %v", e1, e0)
	}
}
