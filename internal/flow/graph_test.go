package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davner/daesim/internal/descriptor"
	"github.com/davner/daesim/internal/dynsys"
)

func decay(tau float64) *descriptor.Scalar {
	return descriptor.NewScalar(tau, 1, nil, 1.0)
}

func TestCompileCycleFails(t *testing.T) {
	g := NewGraph()
	a := g.Add("a", decay(1))
	b := g.Add("b", decay(2))
	require.NoError(t, g.Couple(a, b, nil))
	require.NoError(t, g.Couple(b, a, nil))

	_, err := g.Compile()
	assert.ErrorIs(t, err, dynsys.ErrCyclicCoupling)
}

func TestCoupleSelfLoopFails(t *testing.T) {
	g := NewGraph()
	a := g.Add("a", decay(1))
	assert.ErrorIs(t, g.Couple(a, a, nil), dynsys.ErrCyclicCoupling)
}

func TestCoupleOutOfRange(t *testing.T) {
	g := NewGraph()
	g.Add("a", decay(1))
	assert.Error(t, g.Couple(0, 3, nil))
}

// A composition with no edges must evaluate each constituent exactly as
// it would standalone.
func TestUncoupledMatchesStandalone(t *testing.T) {
	taus := []float64{0.5, 1.0, 2.5}
	const h = 0.05

	for n := 1; n <= len(taus); n++ {
		g := NewGraph()
		systems := make([]*descriptor.Scalar, n)
		for i := 0; i < n; i++ {
			systems[i] = decay(taus[i])
			g.Add("sys", systems[i])
		}
		path, err := g.Compile()
		require.NoError(t, err)

		xs := make([]dynsys.State, n)
		for i := range xs {
			xs[i] = dynsys.State{1}
		}

		got, err := path.Step(0, h, xs)
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			want, err := systems[i].Step(0, h, dynsys.State{1}, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got[i], "constituent %d of %d", i, n)
		}
	}
}

func TestTopologicalEvaluationOrder(t *testing.T) {
	g := NewGraph()
	a := g.Add("a", decay(1))
	b := g.Add("b", decay(1))
	c := g.Add("c", decay(1))
	require.NoError(t, g.Couple(b, c, nil))
	require.NoError(t, g.Couple(a, b, nil))

	path, err := g.Compile()
	require.NoError(t, err)

	pos := make(map[int]int)
	for k, i := range path.Order() {
		pos[i] = k
	}
	assert.Less(t, pos[a], pos[b])
	assert.Less(t, pos[b], pos[c])
}

// Two-compartment mixing: downstream forced by upstream concentration.
func tanksGraph(t *testing.T) *Path {
	t.Helper()
	up := descriptor.NewScalar(1, 0.04, func(_, _ float64) float64 { return 0.01 }, 0.5)
	down := descriptor.NewScalar(1, 0.05, func(_, y float64) float64 { return y / 25 }, 0.5)

	g := NewGraph()
	a := g.Add("tank0", up)
	b := g.Add("tank1", down)
	require.NoError(t, g.Couple(a, b, Identity))

	path, err := g.Compile()
	require.NoError(t, err)
	return path
}

func TestPathEquilibrium(t *testing.T) {
	path := tanksGraph(t)

	eq, err := path.Equilibrium([]dynsys.State{{0}, {0}})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, eq[0][0], 1e-12)
	assert.InDelta(t, 0.2, eq[1][0], 1e-12)
}

func TestChain(t *testing.T) {
	path, err := Chain(decay(1), decay(2), decay(3))
	require.NoError(t, err)
	assert.Equal(t, 3, path.Len())

	pos := make(map[int]int)
	for k, i := range path.Order() {
		pos[i] = k
	}
	assert.Less(t, pos[0], pos[1])
	assert.Less(t, pos[1], pos[2])
}

func TestMaxDelay(t *testing.T) {
	g := NewGraph()
	g.Add("a", decay(1))
	path, err := g.Compile()
	require.NoError(t, err)
	assert.Equal(t, 0.0, path.MaxDelay())
}

func TestTransferGain(t *testing.T) {
	// Downstream sees the upstream solution through a gain of 2.
	up := descriptor.NewScalar(1, 1, func(_, _ float64) float64 { return 1 }, 1.0)
	down := descriptor.NewScalar(1, 1, func(_, y float64) float64 { return y }, 1.0)

	g := NewGraph()
	a := g.Add("up", up)
	b := g.Add("down", down)
	require.NoError(t, g.Couple(a, b, func(_ float64, x dynsys.State) dynsys.State {
		return x.Scale(2)
	}))
	path, err := g.Compile()
	require.NoError(t, err)

	// March briefly; downstream tends to 2x the upstream equilibrium.
	xs := []dynsys.State{{0}, {0}}
	tt := 0.0
	const h = 0.05
	for tt < 20 {
		var err error
		xs, err = path.Step(tt, h, xs)
		require.NoError(t, err)
		tt += h
	}

	assert.InDelta(t, 2*xs[0][0], xs[1][0], 1e-2*math.Max(1, xs[1][0]))
}
