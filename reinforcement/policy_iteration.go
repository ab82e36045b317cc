package reinforcement

import (
	"context"
	"math"
	"time"

	"gridmdp/grid_world"
)

// StochasticPolicy holds an action distribution per state, in canonical action order.
type StochasticPolicy [][grid_world.NumActions]float64

// NewEquiprobablePolicy gives every non-terminal state a uniform distribution over
// actions. Terminal rows are all zero.
func NewEquiprobablePolicy(g *grid_world.Grid) StochasticPolicy {
	pi := make(StochasticPolicy, g.NumStates())
	for s := range pi {
		if g.IsTerminal(grid_world.State(s)) {
			continue
		}
		for a := range pi[s] {
			pi[s][a] = 1.0 / grid_world.NumActions
		}
	}
	return pi
}

// Best returns the row's most probable action; ties go to the first in canonical order.
func (pi StochasticPolicy) Best(s grid_world.State) grid_world.Action {
	best, _ := Greedy(pi[s])
	return best
}

// PolicyIteration alternates in-place policy evaluation and greedy improvement, starting
// from the equiprobable policy, until an improvement pass changes no state's action.
//
// The returned result is never nil once the problem validates. When the iteration cap is
// hit, it holds the best-effort policy and the error is ErrNotConverged.
func PolicyIteration(
	ctx context.Context,
	p *Problem,
	progressFn ProgressFunc,
) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	values := make([]float64, p.Grid.NumStates())
	pi := NewEquiprobablePolicy(p.Grid)
	result := &Result{
		Algorithm: PolicyIterationAlgorithm,
		Values:    values,
		Policy:    grid_world.NewPolicy(p.Grid),
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
	}()

	for iter := 1; iter <= p.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		iterStart := time.Now()
		evaluated, err := evaluatePolicy(ctx, p, pi, values, result)
		if err != nil {
			return result, err
		}
		stable := improvePolicy(p, pi, values, result.Policy)
		elapsed := time.Since(iterStart)

		result.Iterations = iter
		result.IterationTimes = append(result.IterationTimes, elapsed)
		result.Converged = evaluated && stable

		progressFn.report(ctx, Progress{
			Algorithm: PolicyIterationAlgorithm,
			Iteration: iter,
			Sweeps:    result.Sweeps,
			Delta:     result.Deltas[len(result.Deltas)-1],
			Elapsed:   elapsed,
			Values:    values,
			Policy:    result.Policy,
			Done:      result.Converged || !evaluated,
		})

		if !evaluated {
			return result, ErrNotConverged
		}
		if stable {
			return result, nil
		}
	}

	return result, ErrNotConverged
}

// evaluatePolicy sweeps V in place under pi until the largest change in a sweep falls
// below theta. It reports false if the sweep cap was reached first.
func evaluatePolicy(
	ctx context.Context,
	p *Problem,
	pi StochasticPolicy,
	values []float64,
	result *Result,
) (bool, error) {
	for sweep := 0; sweep < p.MaxIterations; sweep++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		delta := 0.0
		for s := range values {
			state := grid_world.State(s)
			if p.Grid.IsTerminal(state) {
				continue
			}

			v := 0.0
			for i, a := range grid_world.Actions {
				if pi[s][i] == 0 {
					continue
				}
				v += pi[s][i] * ExpectedReturn(p, state, a, values)
			}
			delta = math.Max(delta, math.Abs(v-values[s]))
			values[s] = v
		}

		result.Sweeps++
		result.Deltas = append(result.Deltas, delta)
		if delta < p.Theta {
			return true, nil
		}
	}
	return false, nil
}

// improvePolicy makes pi greedy with respect to values, one-hot per state, and mirrors
// the chosen actions into policy. It reports whether no state's action changed.
func improvePolicy(
	p *Problem,
	pi StochasticPolicy,
	values []float64,
	policy grid_world.Policy,
) (stable bool) {
	stable = true
	for s := range values {
		state := grid_world.State(s)
		if p.Grid.IsTerminal(state) {
			continue
		}

		prev := pi.Best(state)
		best, _ := Greedy(ActionValues(p, state, values))
		if best != prev {
			stable = false
		}

		pi[s] = [grid_world.NumActions]float64{}
		pi[s][best] = 1
		policy[s] = best
	}
	return
}
