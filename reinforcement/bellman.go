package reinforcement

import (
	"gridmdp/grid_world"
)

// ExpectedReturn is the one-step Bellman backup of taking action a in state s:
// the sum over outcomes of probability * (reward + gamma * V[next]).
// Terminal states have no outcomes and return zero.
func ExpectedReturn(p *Problem, s grid_world.State, a grid_world.Action, values []float64) (total float64) {
	d := p.Grid.Transitions(s, a, p.Slip, p.Rewards.For(a))
	for _, o := range d.Outcomes() {
		total += o.Probability * (o.Reward + p.Gamma*values[o.Next])
	}
	return
}

// ActionValues returns the expected return of every action, in canonical order.
func ActionValues(p *Problem, s grid_world.State, values []float64) (q [grid_world.NumActions]float64) {
	for i, a := range grid_world.Actions {
		q[i] = ExpectedReturn(p, s, a, values)
	}
	return
}

// Greedy returns the arg-max action and its value. Ties go to the first action in
// canonical order, so only a strictly larger value displaces the incumbent.
func Greedy(q [grid_world.NumActions]float64) (best grid_world.Action, value float64) {
	best, value = grid_world.Actions[0], q[0]
	for i := 1; i < len(q); i++ {
		if q[i] > value {
			best, value = grid_world.Actions[i], q[i]
		}
	}
	return
}
