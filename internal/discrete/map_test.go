package discrete

import (
	"testing"

	"github.com/davner/daesim/internal/dynsys"
)

func TestLogisticSequence(t *testing.T) {
	m := Logistic(4)

	x := dynsys.State{0.2}
	want := []float64{
		4 * 0.2 * (1 - 0.2),
		4 * 0.64 * (1 - 0.64),
	}

	for k, w := range want {
		next, err := m.Step(float64(k), 1, x, nil)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
		if next[0] != w {
			t.Errorf("iterate %d: got %v, want %v", k+1, next[0], w)
		}
		x = next
	}
}

func TestLogisticDeterminism(t *testing.T) {
	run := func() []float64 {
		m := Logistic(4)
		x := dynsys.State{0.2}
		seq := make([]float64, 0, 100)
		for k := 0; k < 100; k++ {
			x, _ = m.Step(float64(k), 1, x, nil)
			seq = append(seq, x[0])
		}
		return seq
	}

	a, b := run(), run()
	for k := range a {
		if a[k] != b[k] {
			t.Fatalf("iterate %d differs between runs: %v vs %v", k, a[k], b[k])
		}
	}
}

func TestMapDimensionMismatch(t *testing.T) {
	m := Logistic(4)
	if _, err := m.Step(0, 1, dynsys.State{0.1, 0.2}, nil); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
