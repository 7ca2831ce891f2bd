// Package history stores past trajectory samples for delay systems and
// supplies interpolated state at arbitrary delayed times.
package history

import (
	"math"
	"sort"

	"github.com/davner/daesim/internal/dynsys"
)

// Interpolation selects how lookups between samples are evaluated.
type Interpolation int

const (
	// Linear interpolates between the two bracketing samples.
	Linear Interpolation = iota
	// Hermite evaluates a cubic Hermite spline with finite-difference
	// slopes, using up to four bracketing samples.
	Hermite
)

// InitialFunc prescribes the state for times before the first recorded
// sample, e.g. the history function of a delay equation on (t0-tau, t0).
type InitialFunc func(t float64) dynsys.State

// Buffer is an ordered sequence of (time, state) samples with strictly
// increasing times. It is appended to by the stepper after accepted
// steps and read by delay systems; retention is bounded by the maximum
// delay any dependent system requires, so memory stays
// O(maxDelay / average step) over arbitrarily long runs.
type Buffer struct {
	maxDelay float64
	interp   Interpolation
	initial  InitialFunc
	samples  []dynsys.Sample
}

// New returns a Buffer retaining samples no older than maxDelay behind
// the latest recorded time. Use math.Inf(1) to retain everything.
func New(maxDelay float64) *Buffer {
	return &Buffer{maxDelay: maxDelay}
}

// SetInitial installs the history function used for lookups before the
// earliest recorded sample.
func (b *Buffer) SetInitial(fn InitialFunc) { b.initial = fn }

// SetInterpolation selects the lookup interpolation order.
func (b *Buffer) SetInterpolation(i Interpolation) { b.interp = i }

// Len returns the number of retained samples.
func (b *Buffer) Len() int { return len(b.samples) }

// Latest returns the most recently recorded time, or -Inf when empty.
func (b *Buffer) Latest() float64 {
	if len(b.samples) == 0 {
		return math.Inf(-1)
	}
	return b.samples[len(b.samples)-1].Time
}

// Earliest returns the oldest retained time, or +Inf when empty.
func (b *Buffer) Earliest() float64 {
	if len(b.samples) == 0 {
		return math.Inf(1)
	}
	return b.samples[0].Time
}

// Record appends a sample. Times must be strictly increasing.
func (b *Buffer) Record(t float64, x dynsys.State) error {
	if len(b.samples) > 0 && t <= b.Latest() {
		return dynsys.ErrOutOfOrderTime
	}
	b.samples = append(b.samples, dynsys.Sample{Time: t, State: x.Clone()})
	return nil
}

// At returns the state at time t. A lookup hitting a recorded time
// returns that sample's state exactly; between samples the configured
// interpolation applies. Lookups beyond the latest recorded time fail
// with ErrFutureTime; lookups before the earliest retained sample fall
// back to the initial function, or fail with ErrUndefinedHistory.
func (b *Buffer) At(t float64) (dynsys.State, error) {
	n := len(b.samples)
	if n == 0 {
		if b.initial != nil {
			return b.initial(t), nil
		}
		return nil, dynsys.ErrUndefinedHistory
	}
	if t > b.Latest() {
		return nil, dynsys.ErrFutureTime
	}
	if t < b.Earliest() {
		if b.initial != nil {
			return b.initial(t), nil
		}
		return nil, dynsys.ErrUndefinedHistory
	}

	// First sample with Time >= t.
	i := sort.Search(n, func(i int) bool { return b.samples[i].Time >= t })
	if b.samples[i].Time == t {
		return b.samples[i].State.Clone(), nil
	}

	switch b.interp {
	case Hermite:
		return b.hermite(i-1, t), nil
	default:
		return b.linear(i-1, t), nil
	}
}

func (b *Buffer) linear(i int, t float64) dynsys.State {
	lo, hi := b.samples[i], b.samples[i+1]
	w := (t - lo.Time) / (hi.Time - lo.Time)
	out := make(dynsys.State, len(lo.State))
	for k := range out {
		out[k] = (1-w)*lo.State[k] + w*hi.State[k]
	}
	return out
}

// hermite evaluates a cubic Hermite segment between samples i and i+1
// with slopes from central finite differences (one-sided at the ends).
func (b *Buffer) hermite(i int, t float64) dynsys.State {
	lo, hi := b.samples[i], b.samples[i+1]
	h := hi.Time - lo.Time
	s := (t - lo.Time) / h

	mLo := b.slope(i)
	mHi := b.slope(i + 1)

	h00 := (1 + 2*s) * (1 - s) * (1 - s)
	h10 := s * (1 - s) * (1 - s)
	h01 := s * s * (3 - 2*s)
	h11 := s * s * (s - 1)

	out := make(dynsys.State, len(lo.State))
	for k := range out {
		out[k] = h00*lo.State[k] + h10*h*mLo[k] + h01*hi.State[k] + h11*h*mHi[k]
	}
	return out
}

func (b *Buffer) slope(i int) dynsys.State {
	n := len(b.samples)
	lo, hi := i-1, i+1
	if lo < 0 {
		lo = i
	}
	if hi >= n {
		hi = i
	}
	a, c := b.samples[lo], b.samples[hi]
	dt := c.Time - a.Time
	out := make(dynsys.State, len(a.State))
	if dt == 0 {
		return out
	}
	for k := range out {
		out[k] = (c.State[k] - a.State[k]) / dt
	}
	return out
}

// Prune drops samples older than latest - maxDelay, keeping one sample
// at or before the cutoff so lookups at exactly the horizon still have
// a bracketing pair.
func (b *Buffer) Prune() {
	if len(b.samples) == 0 || math.IsInf(b.maxDelay, 1) {
		return
	}
	cutoff := b.Latest() - b.maxDelay
	i := 0
	for i < len(b.samples)-1 && b.samples[i+1].Time <= cutoff {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}
