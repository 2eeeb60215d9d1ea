package pagerank

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Teleport is the probability of jumping to a uniformly random page on each
// step; Damping is the probability of following a link instead.
const (
	Teleport = 0.15
	Damping  = 1 - Teleport
)

// ErrZeroOutDegree is returned when an in-link source has no recorded
// out-degree, which would make its rank contribution undefined.
var ErrZeroOutDegree = errors.New("in-link source has zero out-degree")

// ErrIterationCap is returned by Run when Options.MaxIterations is reached
// before the convergence check is satisfied.
var ErrIterationCap = errors.New("iteration cap reached before convergence")

// Options configures an Engine.
type Options struct {
	// MaxIterations caps Run. Zero means iterate until convergence.
	MaxIterations int
	// Workers is the number of goroutines used for the per-node update
	// pass. Values below 2 run the pass sequentially.
	Workers int
	// Observer receives one Progress per iteration. May be nil.
	Observer Observer
	// Tracker overrides the convergence defaults.
	Tracker []TrackerOption
}

// DefaultOptions returns an unbounded, sequential configuration.
func DefaultOptions() Options {
	return Options{Workers: 1}
}

// Result summarises a completed Run.
type Result struct {
	Iterations int
	Perplexity float64
	Converged  bool
	Trace      []Progress
}

// Engine runs the power iteration over a Graph. The graph must not be
// modified while an Engine is using it.
type Engine struct {
	graph   *Graph
	vec     *Vector
	tracker *Tracker
	opts    Options

	// Compiled index form of the graph, built by the first iteration.
	compiled bool
	in       [][]int   // node index → in-link source indices
	outDeg   []float64 // node index → out-degree
	sinks    []int

	iterations int
	sinkMass   float64
	trace      []Progress
}

// NewEngine creates an engine over g with a fresh vector and tracker.
func NewEngine(g *Graph, opts Options) *Engine {
	return &Engine{
		graph:   g,
		vec:     NewVector(),
		tracker: NewTracker(opts.Tracker...),
		opts:    opts,
	}
}

// Init assigns the uniform starting distribution. Returns ErrEmptyGraph for
// a graph with no nodes.
func (e *Engine) Init() error {
	e.compiled = false
	e.iterations = 0
	e.trace = nil
	return e.vec.InitUniform(e.graph.Nodes())
}

// Vector returns the engine's rank vector.
func (e *Engine) Vector() *Vector {
	return e.vec
}

// Tracker returns the engine's convergence tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Iterations returns the number of iterations completed by Run.
func (e *Engine) Iterations() int {
	return e.iterations
}

// SinkMass returns the total rank held by sink nodes at the start of the
// most recent iteration.
func (e *Engine) SinkMass() float64 {
	return e.sinkMass
}

// compile converts the string-keyed graph into index slices aligned with the
// vector domain. Every in-link source must carry an out-degree of at least
// one.
func (e *Engine) compile() error {
	ids := e.vec.IDs()
	e.in = make([][]int, len(ids))
	e.outDeg = make([]float64, len(ids))

	for i, id := range ids {
		deg, err := e.graph.OutDegree(id)
		if err != nil {
			return err
		}
		e.outDeg[i] = float64(deg)
	}

	for i, id := range ids {
		sources, err := e.graph.InLinks(id)
		if err != nil {
			return err
		}
		idx := make([]int, len(sources))
		for j, q := range sources {
			qi, ok := e.vec.index[q]
			if !ok {
				return fmt.Errorf("%w: %s", ErrNodeNotFound, q)
			}
			if e.outDeg[qi] == 0 {
				return fmt.Errorf("%w: %s links to %s", ErrZeroOutDegree, q, id)
			}
			idx[j] = qi
		}
		e.in[i] = idx
	}

	sinkIDs, _ := e.graph.DetectSinkNodes()
	e.sinks = make([]int, len(sinkIDs))
	for j, s := range sinkIDs {
		e.sinks[j] = e.vec.index[s]
	}
	e.compiled = true
	return nil
}

// RunOneIteration computes the next rank of every node from the committed
// ranks and commits the result:
//
//	next[p] = d/N + (1-d)·sinkMass/N + Σ_{q→p} (1-d)·current[q]/outDegree[q]
//
// Nothing is committed if the graph violates the out-degree invariant.
func (e *Engine) RunOneIteration() error {
	if e.vec.Len() == 0 {
		return ErrEmptyGraph
	}
	if !e.compiled {
		if err := e.compile(); err != nil {
			return err
		}
	}

	cur := e.vec.current
	next := e.vec.next

	var sinkMass float64
	for _, s := range e.sinks {
		sinkMass += cur[s]
	}
	e.sinkMass = sinkMass

	n := float64(len(cur))
	base := Teleport/n + Damping*sinkMass/n

	update := func(lo, hi int) {
		for p := lo; p < hi; p++ {
			contribution := base
			for _, q := range e.in[p] {
				contribution += Damping * cur[q] / e.outDeg[q]
			}
			next[p] = contribution
		}
	}

	if e.opts.Workers < 2 || len(cur) < e.opts.Workers {
		update(0, len(cur))
	} else {
		chunk := (len(cur) + e.opts.Workers - 1) / e.opts.Workers
		p := pool.New().WithMaxGoroutines(e.opts.Workers)
		for lo := 0; lo < len(cur); lo += chunk {
			hi := min(lo+chunk, len(cur))
			p.Go(func() { update(lo, hi) })
		}
		p.Wait()
	}

	e.vec.Commit()
	return nil
}

// Run iterates until the tracker reports convergence. It initialises the
// vector if Init has not been called. Cancelling ctx stops the loop between
// iterations; the committed ranks remain readable after any error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.vec.Len() == 0 {
		if err := e.Init(); err != nil {
			return Result{}, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return e.result(false), err
		}

		oldPerplexity := e.tracker.Perplexity(e.vec)
		if err := e.RunOneIteration(); err != nil {
			return e.result(false), err
		}
		newPerplexity := e.tracker.Perplexity(e.vec)
		e.iterations++

		prog := Progress{
			Iteration:  e.iterations,
			Perplexity: newPerplexity,
			SinkMass:   e.sinkMass,
		}
		e.trace = append(e.trace, prog)
		if e.opts.Observer != nil {
			e.opts.Observer.Iteration(prog)
		}

		if e.tracker.ShouldStop(oldPerplexity, newPerplexity) {
			return e.result(true), nil
		}
		if e.opts.MaxIterations > 0 && e.iterations >= e.opts.MaxIterations {
			return e.result(false), fmt.Errorf("%w: %d", ErrIterationCap, e.opts.MaxIterations)
		}
	}
}

func (e *Engine) result(converged bool) Result {
	res := Result{
		Iterations: e.iterations,
		Converged:  converged,
		Trace:      append([]Progress(nil), e.trace...),
	}
	if len(e.trace) > 0 {
		res.Perplexity = e.trace[len(e.trace)-1].Perplexity
	} else if e.vec.Len() > 0 {
		res.Perplexity = e.tracker.Perplexity(e.vec)
	}
	return res
}
