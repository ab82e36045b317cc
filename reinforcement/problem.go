package reinforcement

/*
Dynamic programming over the slip gridworld. Both solvers share the transition model and
the Bellman evaluator, and differ in how they sweep:
  - policy iteration evaluates a fixed (possibly stochastic) policy with in-place sweeps,
    each state seeing values already updated earlier in the same sweep, then improves it
    greedily until no state's action changes.
  - value iteration double-buffers: every read in a sweep sees the previous sweep's values.
    A greedy policy is extracted once, after the values settle.
*/

import (
	"errors"
	"fmt"
	"math"

	"gridmdp/grid_world"
)

const (
	DefaultGamma         = 0.95
	DefaultTheta         = 0.001
	DefaultMaxIterations = 10000
)

var (
	ErrInvalidDiscount   = errors.New("reinforcement: discount must be in [0, 1]")
	ErrInvalidThreshold  = errors.New("reinforcement: convergence threshold must be positive")
	ErrInvalidReward     = errors.New("reinforcement: rewards must be finite")
	ErrInvalidIterations = errors.New("reinforcement: iteration cap must be positive")
	ErrNoGrid            = errors.New("reinforcement: problem has no grid")
	// ErrNotConverged is non-fatal: it accompanies a best-effort result.
	ErrNotConverged = errors.New("reinforcement: iteration cap exceeded before convergence")
)

// Problem is the immutable description of one solver run. It is passed explicitly to
// every solver call; nothing about a run lives in package state.
type Problem struct {
	Grid    *grid_world.Grid
	Slip    grid_world.Slip
	Rewards grid_world.Rewards
	// Gamma is the future reward discount.
	Gamma float64
	// Theta is the stopping threshold on the largest per-sweep value change.
	Theta float64
	// MaxIterations caps every convergence loop, outer and inner.
	MaxIterations int
}

// NewProblem returns a problem with the default discount, threshold, and iteration cap.
func NewProblem(grid *grid_world.Grid, slip grid_world.Slip, rewards grid_world.Rewards) *Problem {
	return &Problem{
		Grid:          grid,
		Slip:          slip,
		Rewards:       rewards,
		Gamma:         DefaultGamma,
		Theta:         DefaultTheta,
		MaxIterations: DefaultMaxIterations,
	}
}

// Validate is run by both solvers before any sweep.
func (p *Problem) Validate() error {
	if p.Grid == nil {
		return ErrNoGrid
	}
	if err := p.Slip.Validate(); err != nil {
		return err
	}
	if !(p.Gamma >= 0 && p.Gamma <= 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidDiscount, p.Gamma)
	}
	if !(p.Theta > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidThreshold, p.Theta)
	}
	for a, r := range p.Rewards {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: %v got %g", ErrInvalidReward, grid_world.Action(a), r)
		}
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidIterations, p.MaxIterations)
	}
	return nil
}
