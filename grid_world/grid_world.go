package grid_world

import (
	"errors"
	"fmt"
)

// State is a cell index in 0..N-1 over a square grid, numbered row-major from the top-left.
type State int

// Action is one of the four compass moves. The declaration order is the canonical
// enumeration order, which also decides arg-max ties: the first action wins.
type Action int

const (
	Up Action = iota
	Down
	Right
	Left

	NumActions = 4
)

// Actions lists every action in canonical order.
var Actions = [NumActions]Action{Up, Down, Right, Left}

// Each action's (row, col) displacement.
var displacements = [NumActions][2]int{
	Up:    {-1, 0},
	Down:  {1, 0},
	Right: {0, 1},
	Left:  {0, -1},
}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Down:
		return "down"
	case Right:
		return "right"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Arrow returns the glyph used when printing a policy.
func (a Action) Arrow() rune {
	switch a {
	case Up:
		return '↑'
	case Down:
		return '↓'
	case Right:
		return '→'
	case Left:
		return '←'
	}
	return '?'
}

// SideActions returns the two actions orthogonal to a, which are the directions an agent
// can slip toward. Vertical moves slip left/right, horizontal moves slip up/down.
func SideActions(a Action) (Action, Action) {
	if a == Up || a == Down {
		return Left, Right
	}
	return Up, Down
}

// ErrBadGrid is returned for non-positive sizes or terminals that are off the grid.
var ErrBadGrid = errors.New("grid_world: invalid grid")

// Grid is a square, wrap-free gridworld with a fixed set of terminal states.
// A Grid is immutable once built.
type Grid struct {
	size     int
	terminal []bool
}

// NewGrid builds a size x size grid. Duplicate terminals are harmless.
func NewGrid(size int, terminals ...State) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size %d", ErrBadGrid, size)
	}

	g := &Grid{
		size:     size,
		terminal: make([]bool, size*size),
	}
	for _, s := range terminals {
		if !g.Contains(s) {
			return nil, fmt.Errorf("%w: terminal %d outside 0..%d", ErrBadGrid, s, g.NumStates()-1)
		}
		g.terminal[s] = true
	}
	return g, nil
}

// Size is the side length S.
func (g *Grid) Size() int {
	return g.size
}

// NumStates is S*S.
func (g *Grid) NumStates() int {
	return g.size * g.size
}

func (g *Grid) Contains(s State) bool {
	return s >= 0 && int(s) < g.NumStates()
}

func (g *Grid) IsTerminal(s State) bool {
	return g.terminal[s]
}

// Terminals returns the terminal states in ascending order.
func (g *Grid) Terminals() (terminals []State) {
	for s, isTerm := range g.terminal {
		if isTerm {
			terminals = append(terminals, State(s))
		}
	}
	return
}

// ToRowCol converts a state index into its row and column.
func (g *Grid) ToRowCol(s State) (row, col int) {
	return int(s) / g.size, int(s) % g.size
}

// ToState converts a row and column back into a state index.
func (g *Grid) ToState(row, col int) State {
	return State(row*g.size + col)
}

// Move applies the action's displacement. Walls are a no-op: if the move would leave
// the grid on either axis, the original state is returned.
func (g *Grid) Move(s State, a Action) State {
	row, col := g.ToRowCol(s)
	row += displacements[a][0]
	col += displacements[a][1]

	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		return s
	}
	return g.ToState(row, col)
}

// Policy is a deterministic mapping from state to action. Entries for terminal
// states carry no meaning.
type Policy []Action

// NewPolicy returns a policy over the grid with every state set to Up.
func NewPolicy(g *Grid) Policy {
	return make(Policy, g.NumStates())
}
