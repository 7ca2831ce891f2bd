package dynsys

import (
	"math"
	"testing"
)

func TestStateClone(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] != 1 {
		t.Error("clone shares backing array")
	}
}

func TestStateIsValid(t *testing.T) {
	if !(State{1, -2, 0}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if (State{1, math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	if (State{math.Inf(1)}).IsValid() {
		t.Error("Inf state reported valid")
	}
	if !(State{}).IsValid() {
		t.Error("empty state should be valid")
	}
}

func TestStateArithmetic(t *testing.T) {
	a := State{3, 4}
	if got := a.Norm(); got != 5 {
		t.Errorf("norm: got %v", got)
	}
	sum := a.Add(State{1, 1})
	if sum[0] != 4 || sum[1] != 5 {
		t.Errorf("add: got %v", sum)
	}
	diff := a.Sub(State{1, 1})
	if diff[0] != 2 || diff[1] != 3 {
		t.Errorf("sub: got %v", diff)
	}
	sc := a.Scale(2)
	if sc[0] != 6 || sc[1] != 8 {
		t.Errorf("scale: got %v", sc)
	}
	if a[0] != 3 || a[1] != 4 {
		t.Error("arithmetic mutated the receiver")
	}
}

func TestInputsBlend(t *testing.T) {
	in := &Inputs{Old: State{0, 10}, New: State{2, 20}}

	old := in.Blend(0)
	if old[0] != 0 || old[1] != 10 {
		t.Errorf("theta=0: got %v", old)
	}
	nw := in.Blend(1)
	if nw[0] != 2 || nw[1] != 20 {
		t.Errorf("theta=1: got %v", nw)
	}
	mid := in.Blend(0.5)
	if mid[0] != 1 || mid[1] != 15 {
		t.Errorf("theta=0.5: got %v", mid)
	}

	var nilIn *Inputs
	if nilIn.Blend(0.5) != nil {
		t.Error("nil inputs should blend to nil")
	}
}
