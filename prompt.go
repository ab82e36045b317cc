package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gridmdp/reinforcement"
)

// promptParams asks for the slip probabilities and per-action rewards. An empty answer,
// or running out of input, keeps the current value.
func promptParams(r io.Reader, w io.Writer, cfg *reinforcement.SolverConfig) error {
	prompts := []struct {
		label string
		val   *float64
	}{
		{"p1, probability of moving in the intended direction", &cfg.Slip.Forward},
		{"p2, probability of staying put", &cfg.Slip.Stay},
		{"reward for moving up", &cfg.Rewards.Up},
		{"reward for moving down", &cfg.Rewards.Down},
		{"reward for moving right", &cfg.Rewards.Right},
		{"reward for moving left", &cfg.Rewards.Left},
	}

	scanner := bufio.NewScanner(r)
	for _, p := range prompts {
		fmt.Fprintf(w, "Enter %s [%g]: ", p.label, *p.val)
		if !scanner.Scan() {
			fmt.Fprintln(w)
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		val, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", p.label, err)
		}
		*p.val = val
	}
	return scanner.Err()
}
