package grid_world

import (
	"errors"
	"fmt"
)

// ErrInvalidSlip is returned when the slip probabilities fall outside the simplex.
var ErrInvalidSlip = errors.New("grid_world: invalid slip parameters, need p1>=0, p2>=0, and p1+p2<=1")

// Slip holds the stochastic movement parameters:
//   - Forward (p1): probability the intended move happens.
//   - Stay (p2): probability the agent stays in place although the move was valid.
//
// The remaining mass splits evenly between the two sideways slips.
type Slip struct {
	Forward float64 `yaml:"p1"`
	Stay    float64 `yaml:"p2"`
}

// Side is the probability of each of the two sideways outcomes.
func (sl Slip) Side() float64 {
	return (1 - sl.Forward - sl.Stay) / 2
}

func (sl Slip) Validate() error {
	// Comparisons with NaN are false, so the bounds are stated positively.
	if !(sl.Forward >= 0 && sl.Stay >= 0 && sl.Forward+sl.Stay <= 1) {
		return fmt.Errorf("%w: p1=%g p2=%g", ErrInvalidSlip, sl.Forward, sl.Stay)
	}
	return nil
}

// Rewards is the per-action reward, constant for every transition caused by that action.
type Rewards [NumActions]float64

// UniformRewards gives every action the same reward.
func UniformRewards(r float64) Rewards {
	return Rewards{r, r, r, r}
}

func (r Rewards) For(a Action) float64 {
	return r[a]
}

// Outcome is a single (probability, next state, reward) triple of a transition.
type Outcome struct {
	Probability float64
	Next        State
	Reward      float64
}

// maxOutcomes bounds a distribution: intended, stay, and two sideways slips.
const maxOutcomes = 4

// Distribution is a merged transition distribution. Destinations are unique and kept in
// the order they were first added. It is a fixed-size value, so building one never
// allocates.
type Distribution struct {
	outcomes [maxOutcomes]Outcome
	n        int
}

// add merges prob into an existing entry for next, or appends a new one.
func (d *Distribution) add(prob float64, next State, reward float64) {
	for i := 0; i < d.n; i++ {
		if d.outcomes[i].Next == next {
			d.outcomes[i].Probability += prob
			return
		}
	}
	d.outcomes[d.n] = Outcome{
		Probability: prob,
		Next:        next,
		Reward:      reward,
	}
	d.n++
}

// Outcomes returns the merged outcomes. The slice aliases the distribution.
func (d *Distribution) Outcomes() []Outcome {
	return d.outcomes[:d.n]
}

func (d *Distribution) Len() int {
	return d.n
}

// Total sums the outcome probabilities.
func (d *Distribution) Total() (total float64) {
	for _, o := range d.Outcomes() {
		total += o.Probability
	}
	return
}

// Transitions returns the distribution over next states for taking action a in state s.
// Terminal states have no transitions and yield an empty distribution.
//
// When the intended move bounces off a wall, p1+p2 stays at s and the sideways slips are
// taken from s. Otherwise p1 goes to the desired cell, p2 stays at s, and the sideways
// slips are taken from the desired cell, so a slip that would itself leave the grid
// folds back onto the desired cell when outcomes are merged.
func (g *Grid) Transitions(s State, a Action, slip Slip, reward float64) (d Distribution) {
	if g.IsTerminal(s) {
		return
	}

	side := slip.Side()
	desired := g.Move(s, a)
	side1, side2 := SideActions(a)

	if desired == s {
		d.add(slip.Forward+slip.Stay, s, reward)
		d.add(side, g.Move(s, side1), reward)
		d.add(side, g.Move(s, side2), reward)
		return
	}

	d.add(slip.Forward, desired, reward)
	d.add(slip.Stay, s, reward)
	d.add(side, g.Move(desired, side1), reward)
	d.add(side, g.Move(desired, side2), reward)
	return
}
