package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

func run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	Convey("When running value iteration on the deterministic grid", t, func() {
		out, err := run("", "value", "--no-color", "--p1", "1", "--p2", "0")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "FINAL VALUE ITERATION RESULT")
		So(out, ShouldContainSubstring, "T ← ← ↓\n↑ ↑ ↑ ↓\n↑ ↑ ↓ ↓\n↑ → → T\n")
	})

	Convey("When comparing the solvers with reports", t, func() {
		dir := t.TempDir()
		plot := filepath.Join(dir, "deltas.png")
		chart := filepath.Join(dir, "deltas.html")

		out, err := run("", "compare", "--no-color", "--plot", plot, "--chart", chart)
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "FINAL POLICY ITERATION RESULT")
		So(out, ShouldContainSubstring, "FINAL VALUE ITERATION RESULT")
		So(out, ShouldContainSubstring, "policies agree")

		_, err = os.Stat(plot)
		So(err, ShouldBeNil)
		_, err = os.Stat(chart)
		So(err, ShouldBeNil)
	})

	Convey("When the slip parameters are invalid", t, func() {
		out, err := run("", "policy", "--p1", "0.8", "--p2", "0.5")
		So(errors.Is(err, grid_world.ErrInvalidSlip), ShouldBeTrue)
		So(out, ShouldNotContainSubstring, "FINAL")

		out, err = run("", "value", "--p1", "NaN")
		So(errors.Is(err, grid_world.ErrInvalidSlip), ShouldBeTrue)
		So(out, ShouldNotContainSubstring, "FINAL")
	})

	Convey("When the iteration cap is hit the best-effort result is still printed", t, func() {
		out, err := run("", "value", "--no-color", "--max-iterations", "2")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "not converged")
	})

	Convey("When a config file is given, flags still override it", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		So(os.WriteFile(path, []byte("kind: gridMDP\ndef:\n  slip: {p1: 0.8, p2: 0.5}\n"), 0o644), ShouldBeNil)

		_, err := run("", "value", "--config", path)
		So(errors.Is(err, grid_world.ErrInvalidSlip), ShouldBeTrue)

		out, err := run("", "value", "--no-color", "--config", path, "--p2", "0.1")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "FINAL VALUE ITERATION RESULT")
	})
}

func TestPromptParams(t *testing.T) {
	Convey("When answering the prompt", t, func() {
		cfg := reinforcement.DefaultConfig()
		var out bytes.Buffer

		err := promptParams(strings.NewReader("1\n0\n\n-2\n"), &out, cfg)
		So(err, ShouldBeNil)
		So(cfg.Slip, ShouldResemble, grid_world.Slip{Forward: 1, Stay: 0})
		So(cfg.Rewards.Up, ShouldEqual, -1.0)
		So(cfg.Rewards.Down, ShouldEqual, -2.0)
		So(cfg.Rewards.Left, ShouldEqual, -1.0)
		So(out.String(), ShouldContainSubstring, "Enter p1")
		So(out.String(), ShouldContainSubstring, "reward for moving left")
	})

	Convey("When an answer is not a number", t, func() {
		cfg := reinforcement.DefaultConfig()
		err := promptParams(strings.NewReader("lots\n"), &bytes.Buffer{}, cfg)
		So(err, ShouldNotBeNil)
		So(cfg.Slip.Forward, ShouldEqual, 0.7)
	})

	Convey("When the interactive flag is set", t, func() {
		out, err := run("1\n0\n", "value", "--no-color", "--interactive")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "T ← ← ↓")
	})
}
