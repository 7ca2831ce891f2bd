package delay

import (
	"errors"
	"math"
	"testing"

	"github.com/davner/daesim/internal/dynsys"
)

func sineSystem() *System {
	return New(1, math.Pi/2,
		func(_ float64, _, delayed dynsys.State) dynsys.State {
			return dynsys.State{-delayed[0]}
		},
		func(t float64) dynsys.State {
			return dynsys.State{math.Sin(t)}
		})
}

func TestStepUsesInitialHistory(t *testing.T) {
	s := sineSystem()
	if err := s.Record(0, dynsys.State{0}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	h := 0.1
	x1, err := s.Step(0, h, dynsys.State{0}, nil)
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}

	// Backward Euler: x1 = x - h*sin(h - pi/2).
	want := -h * math.Sin(h-math.Pi/2)
	if math.Abs(x1[0]-want) > 1e-12 {
		t.Errorf("got %v, want %v", x1[0], want)
	}
}

func TestStepLargerThanDelay(t *testing.T) {
	s := sineSystem()
	s.Record(0, dynsys.State{0})

	if _, err := s.Step(0, 2.0, dynsys.State{0}, nil); !errors.Is(err, dynsys.ErrNonconvergence) {
		t.Errorf("expected ErrNonconvergence for h > tau, got %v", err)
	}
}

func TestStepNoHistory(t *testing.T) {
	s := New(1, 1.0,
		func(_ float64, _, delayed dynsys.State) dynsys.State {
			return dynsys.State{-delayed[0]}
		},
		nil)

	if _, err := s.Step(0, 0.1, dynsys.State{0}, nil); !errors.Is(err, dynsys.ErrUndefinedHistory) {
		t.Errorf("expected ErrUndefinedHistory with no initial function, got %v", err)
	}
}
