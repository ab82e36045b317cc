package grid_world

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
)

// TerminalMarker is printed in place of an arrow for terminal states.
const TerminalMarker = "T"

// ShowPolicy renders the policy as an S x S grid of arrows, cells separated by a single
// space and one row per line. Terminal states are printed as T.
func ShowPolicy(g *Grid, policy Policy) string {
	return showGrid(g, func(s State) string {
		if g.IsTerminal(s) {
			return TerminalMarker
		}
		return string(policy[s].Arrow())
	})
}

// ShowValues renders a value function in the same layout as ShowPolicy.
func ShowValues(g *Grid, values []float64) string {
	return showGrid(g, func(s State) string {
		return fmt.Sprintf("%6.2f", values[s])
	})
}

func showGrid(g *Grid, cell func(State) string) string {
	var sb strings.Builder
	row := make([]string, g.Size())
	for r := 0; r < g.Size(); r++ {
		for c := 0; c < g.Size(); c++ {
			row[c] = cell(g.ToState(r, c))
		}
		sb.WriteString(strings.Join(row, " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrintPolicy writes the policy grid to w, coloring terminals and arrows when color is set.
func PrintPolicy(w io.Writer, g *Grid, policy Policy, color bool) (err error) {
	au := aurora.NewAurora(color)
	row := make([]string, g.Size())
	for r := 0; r < g.Size(); r++ {
		for c := 0; c < g.Size(); c++ {
			s := g.ToState(r, c)
			if g.IsTerminal(s) {
				row[c] = au.Bold(au.Green(TerminalMarker)).String()
			} else {
				row[c] = au.Cyan(string(policy[s].Arrow())).String()
			}
		}
		if _, err = fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return
		}
	}
	_, err = fmt.Fprintln(w)
	return
}
