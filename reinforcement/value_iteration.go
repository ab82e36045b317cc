package reinforcement

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"gridmdp/grid_world"
)

// ValueIteration sweeps V with the max over actions, reading only the previous sweep's
// values, until the largest change falls below theta. A greedy policy is then extracted
// in one final pass.
//
// Cap and cancellation semantics match PolicyIteration: the result holds the values
// reached so far, with a policy extracted from them.
func ValueIteration(
	ctx context.Context,
	p *Problem,
	progressFn ProgressFunc,
) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	values := make([]float64, p.Grid.NumStates())
	next := make([]float64, len(values))
	result := &Result{
		Algorithm: ValueIterationAlgorithm,
	}

	start := time.Now()
	finish := func(err error) (*Result, error) {
		result.Values = values
		result.Policy = ExtractPolicy(p, values)
		result.Elapsed = time.Since(start)
		return result, err
	}

	for iter := 1; iter <= p.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		iterStart := time.Now()
		copy(next, values)
		for s := range next {
			state := grid_world.State(s)
			if p.Grid.IsTerminal(state) {
				continue
			}
			_, next[s] = Greedy(ActionValues(p, state, values))
		}

		delta := floats.Distance(next, values, math.Inf(1))
		values, next = next, values
		elapsed := time.Since(iterStart)

		result.Iterations = iter
		result.Sweeps = iter
		result.Deltas = append(result.Deltas, delta)
		result.IterationTimes = append(result.IterationTimes, elapsed)

		progress := Progress{
			Algorithm: ValueIterationAlgorithm,
			Iteration: iter,
			Sweeps:    iter,
			Delta:     delta,
			Elapsed:   elapsed,
			Values:    values,
		}
		if delta < p.Theta {
			result.Converged = true
			res, err := finish(nil)
			progress.Policy = res.Policy
			progress.Done = true
			progressFn.report(ctx, progress)
			return res, err
		}
		progressFn.report(ctx, progress)
	}

	return finish(ErrNotConverged)
}

// ExtractPolicy picks the first-max action of every non-terminal state under values.
// Terminal entries are left as Up.
func ExtractPolicy(p *Problem, values []float64) grid_world.Policy {
	policy := grid_world.NewPolicy(p.Grid)
	for s := range policy {
		state := grid_world.State(s)
		if p.Grid.IsTerminal(state) {
			continue
		}
		policy[s], _ = Greedy(ActionValues(p, state, values))
	}
	return policy
}
