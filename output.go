package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

func logProgress(_ context.Context, pr reinforcement.Progress) {
	switch pr.Algorithm {
	case reinforcement.PolicyIterationAlgorithm:
		log.Printf("Policy Iteration %d time: %v\n", pr.Iteration, pr.Elapsed)
	case reinforcement.ValueIterationAlgorithm:
		log.Printf("Value Iteration %d delta: %g\n", pr.Iteration, pr.Delta)
	}
}

func title(alg reinforcement.Algorithm) string {
	return strings.ToUpper(strings.ReplaceAll(string(alg), "-", " "))
}

func printResult(w io.Writer, p *reinforcement.Problem, result *reinforcement.Result, color bool) error {
	status := "converged"
	if !result.Converged {
		status = "not converged"
	}
	fmt.Fprintf(w, "FINAL %s RESULT\n", title(result.Algorithm))
	fmt.Fprintf(w, "iterations: %d sweeps: %d elapsed: %v (%s)\n",
		result.Iterations, result.Sweeps, result.Elapsed, status)
	if err := grid_world.PrintPolicy(w, p.Grid, result.Policy, color); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, grid_world.ShowValues(p.Grid, result.Values))
	return err
}

func printComparison(w io.Writer, p *reinforcement.Problem, cmp *reinforcement.Comparison, color bool) error {
	for _, result := range []*reinforcement.Result{cmp.Policy, cmp.Value} {
		if err := printResult(w, p, result, color); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "max value gap: %.6f\n", cmp.MaxValueGap)
	if cmp.Agree() {
		_, err := fmt.Fprintln(w, "policies agree")
		return err
	}
	_, err := fmt.Fprintf(w, "policies disagree at states %v\n", cmp.Disagreements)
	return err
}
