// cell_views contains views derived from the Board view-model.
package cell_views

import (
	"fmt"
	"math"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

// Snapshot is a copy of a solver's state at one progress report. Unlike Progress it
// owns its slices, so it can cross goroutines.
type Snapshot struct {
	Grid      *grid_world.Grid
	Algorithm reinforcement.Algorithm
	Iteration int
	Sweeps    int
	Delta     float64
	Done      bool
	Values    []float64
	Policy    grid_world.Policy
}

// NewSnapshot copies pr. A progress report without a policy, as value iteration sends
// until it finishes, gets the greedy policy of its current values.
func NewSnapshot(p *reinforcement.Problem, pr reinforcement.Progress) Snapshot {
	snap := Snapshot{
		Grid:      p.Grid,
		Algorithm: pr.Algorithm,
		Iteration: pr.Iteration,
		Sweeps:    pr.Sweeps,
		Delta:     pr.Delta,
		Done:      pr.Done,
		Values:    append([]float64(nil), pr.Values...),
	}
	if pr.Policy != nil {
		snap.Policy = append(grid_world.Policy(nil), pr.Policy...)
	} else {
		snap.Policy = reinforcement.ExtractPolicy(p, snap.Values)
	}
	return snap
}

// InitialSnapshot is the all-zero state shown before any solver reports.
func InitialSnapshot(g *grid_world.Grid) Snapshot {
	return Snapshot{
		Grid:   g,
		Values: make([]float64, g.NumStates()),
		Policy: grid_world.NewPolicy(g),
	}
}

// Board is the view-model of the whole page: the grid cells plus the run status.
type Board struct {
	Cells     [][]Cell
	Algorithm string
	Iteration int
	Sweeps    int
	Delta     string
	Status    string
}

// Cell fields are immediately usable as view parameters. X is the column and Y the row,
// which is also the svg orientation: [0][0] is drawn top left, as on the console.
type Cell struct {
	X, Y                int
	Value               float64
	PolicyArrowRotation int
	ArrowVisibility     string
	Fill                string
}

// Convert transforms a snapshot into the Board consumed by the views.
func Convert(snap Snapshot) Board {
	g := snap.Grid
	minVal, maxVal := 0.0, 0.0
	for _, v := range snap.Values {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	cells := make([][]Cell, g.Size())
	for row := range cells {
		cells[row] = make([]Cell, g.Size())
		for col := range cells[row] {
			s := g.ToState(row, col)
			cell := Cell{
				X:                   col,
				Y:                   row,
				Value:               snap.Values[s],
				PolicyArrowRotation: getDegrees(snap.Policy[s]),
				ArrowVisibility:     "visible",
				Fill:                getFill(snap.Values[s], minVal, maxVal),
			}
			if g.IsTerminal(s) {
				cell.ArrowVisibility = "hidden"
				cell.Fill = "lightyellow"
			}
			cells[row][col] = cell
		}
	}

	status := "running"
	switch {
	case snap.Done:
		status = "done"
	case snap.Iteration == 0:
		status = "waiting"
	}

	return Board{
		Cells:     cells,
		Algorithm: string(snap.Algorithm),
		Iteration: snap.Iteration,
		Sweeps:    snap.Sweeps,
		Delta:     fmt.Sprintf("%.6f", snap.Delta),
		Status:    status,
	}
}

// getDegrees is the svg rotation, clockwise from vertical, of an upward arrow glyph.
func getDegrees(a grid_world.Action) int {
	switch a {
	case grid_world.Right:
		return 90
	case grid_world.Down:
		return 180
	case grid_world.Left:
		return 270
	}
	return 0
}

// getFill shades from white at the best value to red at the worst.
func getFill(val, minVal, maxVal float64) string {
	span := maxVal - minVal
	if span == 0 {
		return "rgb(100%,100%,100%)"
	}
	pct := int(100 * (maxVal - val) / span)
	return fmt.Sprintf("rgb(100%%,%d%%,%d%%)", 100-pct, 100-pct)
}
