package dynsys

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Inputs carries an upstream system's solution across one trial step:
// Old is the value at the step start t, New the value at t+h. Implicit
// discretizations blend the two at their theta parameter.
type Inputs struct {
	Old State
	New State
}

// Blend interpolates the forcing input at parameter theta in [0, 1],
// 0 giving Old and 1 giving New.
func (in *Inputs) Blend(theta float64) State {
	if in == nil {
		return nil
	}
	out := make(State, len(in.Old))
	for i := range in.Old {
		out[i] = (1-theta)*in.Old[i] + theta*in.New[i]
	}
	return out
}

// System is a single dynamical unit. Step advances the state x at time t
// by h, returning the state at t+h. Systems are stateless evaluators:
// the trajectory lives in the stepper's integration state and the
// history buffers, never inside the system itself.
type System interface {
	Dim() int
	Step(t, h float64, x State, in *Inputs) (State, error)
}

// Discrete marks a system whose step is one map iteration: h is ignored,
// the step is always accepted and bypasses continuous error control.
type Discrete interface {
	Discrete() bool
}

// Algebraic marks a system with no integrable state: it responds
// instantaneously to time and inputs and needs no initial condition.
type Algebraic interface {
	Algebraic() bool
}

// Equilibrater is implemented by systems that can report an eventual
// steady state directly, without marching.
type Equilibrater interface {
	Equilibrium(x State, in *Inputs) (State, error)
}

// Historied is implemented by systems that read delayed state from a
// history buffer; MaxDelay bounds how far back they ever look, which
// sets the buffer retention window.
type Historied interface {
	MaxDelay() float64
}

// Recorder is implemented by systems whose evaluation reads past
// trajectory. The stepper records every accepted step through it; the
// implementation prunes samples older than its delay horizon.
type Recorder interface {
	Record(t float64, x State) error
}

// IsDiscrete reports whether sys steps in map iterations rather than
// continuous time.
func IsDiscrete(sys System) bool {
	d, ok := sys.(Discrete)
	return ok && d.Discrete()
}

// IsAlgebraic reports whether sys carries no integrable state.
func IsAlgebraic(sys System) bool {
	a, ok := sys.(Algebraic)
	return ok && a.Algebraic()
}

// Sample is one recorded trajectory point.
type Sample struct {
	Time  float64
	State State
}

func (s Sample) String() string {
	return fmt.Sprintf("(t=%.6g, x=%v)", s.Time, []float64(s.State))
}
