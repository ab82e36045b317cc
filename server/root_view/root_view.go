package root_view

import (
	"context"
	"html/template"
	"time"

	"gridmdp/server/cell_views"
	"gridmdp/server/fastview"
)

// batchWindow bounds how long element updates are coalesced before being sent on.
const batchWindow = time.Millisecond * 20

// RootView is the index page: the container for every view component and the wiring
// of their channels.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over a stream of solver snapshots.
func NewRootView(
	ctx context.Context,
	snapshots <-chan cell_views.Snapshot,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[cell_views.Snapshot, cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.Convert).
		WithView(func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewStatusBar(done, boards)
		}).
		WithView(func(done <-chan struct{}, boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewValuesGrid(done, boards)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fastview.FanIn(ctx.Done(), views, batchWindow),
	}, nil
}

// Updates returns the merged ele-update channel of all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the page template, with the websocket bootstrap code, and returns its name.
// It also installs the func-map that child views depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>gridmdp</title>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};
				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};
				// Apply each pushed element update by id.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (ele === null) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body>
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}
