package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

func solveBoth() []*reinforcement.Result {
	g, _ := grid_world.NewGrid(4, 0, 15)
	p := reinforcement.NewProblem(g, grid_world.Slip{Forward: 0.7, Stay: 0.1}, grid_world.UniformRewards(-1))
	cmp, err := reinforcement.Compare(context.Background(), p, nil, reinforcement.DefaultTolerance)
	if err != nil {
		panic(err)
	}
	return []*reinforcement.Result{cmp.Policy, cmp.Value}
}

func TestReports(t *testing.T) {
	Convey("Given both solver results", t, func() {
		results := solveBoth()
		dir := t.TempDir()

		Convey("When plotting deltas to a png", func() {
			path := filepath.Join(dir, "plots", "deltas.png")
			So(PlotDeltas(path, results...), ShouldBeNil)
			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Size(), ShouldBeGreaterThan, 0)
		})

		Convey("When charting deltas to html", func() {
			var buf bytes.Buffer
			So(ChartDeltas(&buf, results...), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "Convergence")
			So(buf.String(), ShouldContainSubstring, string(reinforcement.ValueIterationAlgorithm))

			path := filepath.Join(dir, "chart.html")
			So(ChartDeltasToFile(path, results...), ShouldBeNil)
			_, err := os.Stat(path)
			So(err, ShouldBeNil)
		})

		Convey("When a result is missing it is skipped", func() {
			var buf bytes.Buffer
			So(ChartDeltas(&buf, nil, results[1]), ShouldBeNil)
			So(PlotDeltas(filepath.Join(dir, "one.png"), nil, results[1]), ShouldBeNil)
		})
	})
}
