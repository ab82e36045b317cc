/*
Gridmdp solves the slip gridworld: a square grid with terminal cells, where each move
goes where intended with probability p1, stays put with p2, and otherwise slips to one
side. Policy iteration and value iteration both compute the optimal policy, and a
compare run cross-checks them. Progress can be plotted, charted, or watched live in the
browser while a solver runs.
*/
package main

import (
	"fmt"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Println(err)
	}
}
