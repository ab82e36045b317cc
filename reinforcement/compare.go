package reinforcement

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"gridmdp/grid_world"
)

// DefaultTolerance is the q-value gap below which two chosen actions count as a tie.
const DefaultTolerance = DefaultTheta

// Comparison cross-checks the two solvers on one problem.
type Comparison struct {
	Policy *Result
	Value  *Result
	// MaxValueGap is the largest absolute difference between the value functions.
	MaxValueGap float64
	// Disagreements lists states where the chosen actions differ by more than the
	// tolerance, judged by their q-values under value iteration's values.
	Disagreements []grid_world.State
}

// Agree reports whether the solvers picked equivalent actions everywhere.
func (c *Comparison) Agree() bool {
	return len(c.Disagreements) == 0
}

// Compare runs policy iteration, then value iteration, on the same problem. A non-convergence
// in either solver is reported alongside the comparison; validation or cancellation errors
// abort it.
func Compare(
	ctx context.Context,
	p *Problem,
	progressFn ProgressFunc,
	tolerance float64,
) (*Comparison, error) {
	piResult, piErr := PolicyIteration(ctx, p, progressFn)
	if piErr != nil && !errors.Is(piErr, ErrNotConverged) {
		return nil, piErr
	}
	viResult, viErr := ValueIteration(ctx, p, progressFn)
	if viErr != nil && !errors.Is(viErr, ErrNotConverged) {
		return nil, viErr
	}

	cmp := &Comparison{
		Policy:      piResult,
		Value:       viResult,
		MaxValueGap: floats.Distance(piResult.Values, viResult.Values, math.Inf(1)),
	}
	for s := range viResult.Policy {
		state := grid_world.State(s)
		if p.Grid.IsTerminal(state) {
			continue
		}
		a, b := piResult.Policy[s], viResult.Policy[s]
		if a == b {
			continue
		}
		q := ActionValues(p, state, viResult.Values)
		if math.Abs(q[a]-q[b]) > tolerance {
			cmp.Disagreements = append(cmp.Disagreements, state)
		}
	}

	return cmp, errors.Join(piErr, viErr)
}
