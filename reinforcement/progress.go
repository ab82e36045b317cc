package reinforcement

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gridmdp/atomic_float"
	"gridmdp/grid_world"
)

// Algorithm names a solver.
type Algorithm string

const (
	PolicyIterationAlgorithm Algorithm = "policy-iteration"
	ValueIterationAlgorithm  Algorithm = "value-iteration"
	CompareAlgorithm         Algorithm = "compare"
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm.
var ErrUnknownAlgorithm = errors.New("reinforcement: unknown algorithm")

// ParseAlgorithm accepts the full names and the short forms "policy", "value", "pi", "vi".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "policy", "pi", string(PolicyIterationAlgorithm):
		return PolicyIterationAlgorithm, nil
	case "value", "vi", string(ValueIterationAlgorithm):
		return ValueIterationAlgorithm, nil
	case "", "both", string(CompareAlgorithm):
		return CompareAlgorithm, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Progress is reported once per outer iteration of a solver. For policy iteration that
// is one evaluate/improve round; for value iteration it is one sweep.
type Progress struct {
	Algorithm Algorithm
	Iteration int
	// Sweeps is the running total of value sweeps.
	Sweeps int
	// Delta is the largest value change of the latest sweep.
	Delta float64
	// Elapsed is the wall time of this iteration.
	Elapsed time.Duration
	// Values and Policy alias the solver's working state and are only valid during the
	// callback; copy them to retain. Policy is nil for value iteration until Done.
	Values []float64
	Policy grid_world.Policy
	Done   bool
}

// ProgressFunc is a callback by which a solver lends progress details. It is synchronous
// and blocks the solver, so it should complete quickly. A nil ProgressFunc is allowed.
type ProgressFunc func(context.Context, Progress)

func (fn ProgressFunc) report(ctx context.Context, p Progress) {
	if fn != nil {
		fn(ctx, p)
	}
}

// Result is the outcome of a solver run. On ErrNotConverged or cancellation it holds the
// best-effort values and policy reached so far.
type Result struct {
	Algorithm Algorithm
	Values    []float64
	Policy    grid_world.Policy
	// Iterations counts outer iterations: evaluate/improve rounds or value sweeps.
	Iterations int
	Sweeps     int
	// Deltas holds the largest value change of every sweep, in order.
	Deltas         []float64
	IterationTimes []time.Duration
	Elapsed        time.Duration
	Converged      bool
}

// Status is the externally visible view of a Tracker.
type Status struct {
	Algorithm Algorithm `json:"algorithm"`
	Iteration int64     `json:"iteration"`
	Sweeps    int64     `json:"sweeps"`
	Delta     float64   `json:"delta"`
	Seconds   float64   `json:"seconds"`
	Done      bool      `json:"done"`
}

// Tracker records solver progress for readers on other goroutines, such as an http
// status handler, while the solver keeps running.
type Tracker struct {
	algorithm atomic.Value
	iteration atomic.Int64
	sweeps    atomic.Int64
	done      atomic.Bool
	delta     *atomic_float.AtomicFloat64
	seconds   *atomic_float.AtomicFloat64
}

func NewTracker() *Tracker {
	t := &Tracker{
		delta:   atomic_float.NewAtomicFloat64(0),
		seconds: atomic_float.NewAtomicFloat64(0),
	}
	t.algorithm.Store(Algorithm(""))
	return t
}

// Observe is shaped as a ProgressFunc so it can be chained into a solver's callback.
func (t *Tracker) Observe(_ context.Context, p Progress) {
	t.algorithm.Store(p.Algorithm)
	t.iteration.Store(int64(p.Iteration))
	t.sweeps.Store(int64(p.Sweeps))
	t.delta.AtomicSet(p.Delta)
	// Elapsed accumulates across iterations and runs.
	for {
		if _, ok := t.seconds.AtomicAdd(p.Elapsed.Seconds()); ok {
			break
		}
	}
	t.done.Store(p.Done)
}

func (t *Tracker) Status() Status {
	return Status{
		Algorithm: t.algorithm.Load().(Algorithm),
		Iteration: t.iteration.Load(),
		Sweeps:    t.sweeps.Load(),
		Delta:     t.delta.AtomicRead(),
		Seconds:   t.seconds.AtomicRead(),
		Done:      t.done.Load(),
	}
}

// Chain fans a progress report out to several callbacks, in order.
func Chain(fns ...ProgressFunc) ProgressFunc {
	return func(ctx context.Context, p Progress) {
		for _, fn := range fns {
			fn.report(ctx, p)
		}
	}
}
