// Package flow composes dynamical systems into a signal-flow graph:
// directed edges feed one system's solution into another's forcing
// term, the way a gain feeds a node in Mason's signal-flow graphs.
//
// The coupling graph must be acyclic per time level; feedback loops are
// resolved across time steps, never within one evaluation.
package flow

import (
	"fmt"
	"math"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"

	"github.com/davner/daesim/internal/dynsys"
)

// Transfer maps an upstream system's solution to the signal seen by the
// downstream system, evaluated at a given time.
type Transfer func(t float64, upstream dynsys.State) dynsys.State

// Identity passes the upstream solution through unchanged.
func Identity(_ float64, x dynsys.State) dynsys.State { return x }

type edge struct {
	from, to int
	fn       Transfer
}

// Graph collects systems and coupling edges before compilation.
// Systems are addressed by the index returned from Add; the graph holds
// no state beyond its own topology.
type Graph struct {
	systems []dynsys.System
	names   []string
	edges   []edge
}

func NewGraph() *Graph {
	return &Graph{}
}

// Add registers a system under a diagnostic name and returns its index.
func (g *Graph) Add(name string, sys dynsys.System) int {
	g.systems = append(g.systems, sys)
	g.names = append(g.names, name)
	return len(g.systems) - 1
}

// Couple declares that the solution of systems[from] forces
// systems[to], through fn (Identity if nil).
func (g *Graph) Couple(from, to int, fn Transfer) error {
	if from < 0 || from >= len(g.systems) || to < 0 || to >= len(g.systems) {
		return fmt.Errorf("flow: coupling edge %d->%d out of range", from, to)
	}
	if from == to {
		return dynsys.ErrCyclicCoupling
	}
	if fn == nil {
		fn = Identity
	}
	g.edges = append(g.edges, edge{from: from, to: to, fn: fn})
	return nil
}

// Compile topologically orders the coupling graph and returns the
// evaluatable Path. A cycle fails with dynsys.ErrCyclicCoupling.
func (g *Graph) Compile() (*Path, error) {
	dg, err := core.NewGraph(core.WithDirected(true))
	if err != nil {
		return nil, fmt.Errorf("flow: %w", err)
	}
	for i := range g.systems {
		if err := dg.AddVertex(strconv.Itoa(i)); err != nil {
			return nil, fmt.Errorf("flow: %w", err)
		}
	}
	for _, e := range g.edges {
		if _, err := dg.AddEdge(strconv.Itoa(e.from), strconv.Itoa(e.to), 0); err != nil {
			return nil, fmt.Errorf("flow: %w", err)
		}
	}

	ids, err := dfs.TopologicalSort(dg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynsys.ErrCyclicCoupling, err)
	}

	order := make([]int, len(ids))
	for i, id := range ids {
		order[i], _ = strconv.Atoi(id)
	}

	incoming := make([][]edge, len(g.systems))
	for _, e := range g.edges {
		incoming[e.to] = append(incoming[e.to], e)
	}

	return &Path{graph: g, order: order, incoming: incoming}, nil
}

// Chain builds the elementary path: each system's output feeds the
// next through the identity transfer.
func Chain(systems ...dynsys.System) (*Path, error) {
	g := NewGraph()
	for i, s := range systems {
		g.Add(strconv.Itoa(i), s)
	}
	for i := 0; i+1 < len(systems); i++ {
		if err := g.Couple(i, i+1, Identity); err != nil {
			return nil, err
		}
	}
	return g.Compile()
}

// Path is a compiled composition: systems plus a topological evaluation
// order. Its combined state is the slice of constituent states.
type Path struct {
	graph    *Graph
	order    []int
	incoming [][]edge
}

// Len returns the number of constituent systems.
func (p *Path) Len() int { return len(p.graph.systems) }

// System returns the i-th constituent.
func (p *Path) System(i int) dynsys.System { return p.graph.systems[i] }

// Name returns the diagnostic name of the i-th constituent.
func (p *Path) Name(i int) string { return p.graph.names[i] }

// Order returns the topological evaluation order.
func (p *Path) Order() []int { return p.order }

// inputs assembles the forcing signal for system i from its upstream
// solutions at the step start and end. Returns nil for uncoupled
// systems, so a system without incoming edges sees exactly what it
// would standalone.
func (p *Path) inputs(i int, t, h float64, xs, xnew []dynsys.State) *dynsys.Inputs {
	es := p.incoming[i]
	if len(es) == 0 {
		return nil
	}
	var in dynsys.Inputs
	for _, e := range es {
		old := e.fn(t, xs[e.from])
		now := e.fn(t+h, xnew[e.from])
		if in.Old == nil {
			in.Old = old.Clone()
			in.New = now.Clone()
			continue
		}
		in.Old = in.Old.Add(old)
		in.New = in.New.Add(now)
	}
	return &in
}

// Step advances every constituent from t by h, evaluating in
// topological order so each upstream solution is fresh when its
// downstream consumers run.
func (p *Path) Step(t, h float64, xs []dynsys.State) ([]dynsys.State, error) {
	if len(xs) != p.Len() {
		return nil, dynsys.ErrDimensionMismatch
	}
	xnew := make([]dynsys.State, p.Len())
	for _, i := range p.order {
		in := p.inputs(i, t, h, xs, xnew)
		x1, err := p.graph.systems[i].Step(t, h, xs[i], in)
		if err != nil {
			return nil, fmt.Errorf("flow: system %q: %w", p.graph.names[i], err)
		}
		xnew[i] = x1
	}
	return xnew, nil
}

// Equilibrium returns the eventual steady state along the path, feeding
// each upstream equilibrium into its downstream consumers.
func (p *Path) Equilibrium(xs []dynsys.State) ([]dynsys.State, error) {
	if xs == nil {
		xs = make([]dynsys.State, p.Len())
	}
	xeq := make([]dynsys.State, p.Len())
	for _, i := range p.order {
		eq, ok := p.graph.systems[i].(dynsys.Equilibrater)
		if !ok {
			return nil, fmt.Errorf("flow: system %q has no equilibrium", p.graph.names[i])
		}
		var in *dynsys.Inputs
		if es := p.incoming[i]; len(es) > 0 {
			in = &dynsys.Inputs{}
			for _, e := range es {
				old := e.fn(0, xs[e.from])
				now := e.fn(math.Inf(1), xeq[e.from])
				if in.Old == nil {
					in.Old, in.New = old.Clone(), now.Clone()
				} else {
					in.Old, in.New = in.Old.Add(old), in.New.Add(now)
				}
			}
		}
		x, err := eq.Equilibrium(xs[i], in)
		if err != nil {
			return nil, fmt.Errorf("flow: system %q: %w", p.graph.names[i], err)
		}
		xeq[i] = x
	}
	return xeq, nil
}

// Record appends an accepted sample to every constituent that keeps
// history.
func (p *Path) Record(t float64, xs []dynsys.State) error {
	for i, sys := range p.graph.systems {
		if r, ok := sys.(dynsys.Recorder); ok {
			if err := r.Record(t, xs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// MaxDelay returns the largest delay any constituent requires, 0 when
// none keep history.
func (p *Path) MaxDelay() float64 {
	d := 0.0
	for _, sys := range p.graph.systems {
		if h, ok := sys.(dynsys.Historied); ok && h.MaxDelay() > d {
			d = h.MaxDelay()
		}
	}
	return d
}

// Discrete reports whether every constituent is a discrete map, in
// which case the stepper fixes h at one map iteration.
func (p *Path) Discrete() bool {
	for _, sys := range p.graph.systems {
		if !dynsys.IsDiscrete(sys) {
			return false
		}
	}
	return len(p.graph.systems) > 0
}
