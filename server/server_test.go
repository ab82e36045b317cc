package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
	"gridmdp/server/cell_views"
	"gridmdp/server/fastview"
)

func newTestProblem() *reinforcement.Problem {
	g, _ := grid_world.NewGrid(4, 0, 15)
	return reinforcement.NewProblem(g, grid_world.Slip{Forward: 0.7, Stay: 0.1}, grid_world.UniformRewards(-1))
}

func TestServer(t *testing.T) {
	Convey("Given a server for the corner problem", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		problem := newTestProblem()
		srv, err := NewServer(ctx, ":0", problem)
		So(err, ShouldBeNil)
		ts := httptest.NewServer(srv.Router())
		defer ts.Close()

		get := func(path string) (int, string) {
			resp, err := http.Get(ts.URL + path)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			return resp.StatusCode, string(body)
		}

		Convey("The index page renders every cell", func() {
			code, body := get("/")
			So(code, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, `id="0-0-value-text"`)
			So(body, ShouldContainSubstring, `id="3-3-policy-arrow"`)
			So(body, ShouldContainSubstring, `id="statusbar-status"`)
			So(body, ShouldContainSubstring, "waiting")
		})

		Convey("The status endpoint follows the solver", func() {
			_, err := reinforcement.ValueIteration(ctx, problem, srv.Observe)
			So(err, ShouldBeNil)

			code, body := get("/status")
			So(code, ShouldEqual, http.StatusOK)
			var status reinforcement.Status
			So(json.Unmarshal([]byte(body), &status), ShouldBeNil)
			So(status.Algorithm, ShouldEqual, reinforcement.ValueIterationAlgorithm)
			So(status.Done, ShouldBeTrue)
			So(status.Iteration, ShouldBeGreaterThan, 0)

			_, body = get("/")
			So(body, ShouldContainSubstring, "done")
		})

		Convey("The websocket pushes element updates", func() {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			_, err = reinforcement.PolicyIteration(ctx, problem, srv.Observe)
			So(err, ShouldBeNil)

			So(conn.SetReadDeadline(time.Now().Add(5*time.Second)), ShouldBeNil)
			var updates []fastview.EleUpdate
			So(conn.ReadJSON(&updates), ShouldBeNil)
			So(len(updates), ShouldBeGreaterThan, 0)
		})
	})
}

func TestConvert(t *testing.T) {
	Convey("When converting a finished snapshot", t, func() {
		problem := newTestProblem()
		result, err := reinforcement.ValueIteration(context.Background(), problem, nil)
		So(err, ShouldBeNil)

		snap := cell_views.NewSnapshot(problem, reinforcement.Progress{
			Algorithm: result.Algorithm,
			Iteration: result.Iterations,
			Delta:     result.Deltas[len(result.Deltas)-1],
			Values:    result.Values,
			Done:      true,
		})
		So(snap.Policy, ShouldResemble, result.Policy)

		board := cell_views.Convert(snap)
		So(len(board.Cells), ShouldEqual, 4)
		So(board.Status, ShouldEqual, "done")

		// state 1 is row 0, column 1 and heads left.
		cell := board.Cells[0][1]
		So(cell.X, ShouldEqual, 1)
		So(cell.Y, ShouldEqual, 0)
		So(cell.PolicyArrowRotation, ShouldEqual, 270)
		So(cell.ArrowVisibility, ShouldEqual, "visible")

		So(board.Cells[0][0].ArrowVisibility, ShouldEqual, "hidden")
		So(board.Cells[3][3].Fill, ShouldEqual, "lightyellow")

		Convey("The snapshot does not alias the solver's slices", func() {
			result.Values[1] = 100
			So(snap.Values[1], ShouldNotEqual, 100.0)
		})
	})
}
