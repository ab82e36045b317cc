package cell_views

import (
	"fmt"
	"html/template"

	channerics "github.com/niceyeti/channerics/channels"

	"gridmdp/server/fastview"
)

// StatusBar shows which solver is running, how far along it is, and the latest delta.
type StatusBar struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatusBar(
	done <-chan struct{},
	boards <-chan Board,
) *StatusBar {
	sb := &StatusBar{id: "statusbar"}
	sb.updates = channerics.Convert(done, boards, sb.onUpdate)
	return sb
}

func (sb *StatusBar) Updates() <-chan []fastview.EleUpdate {
	return sb.updates
}

func (sb *StatusBar) onUpdate(board Board) []fastview.EleUpdate {
	text := func(field, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: sb.id + "-" + field,
			Ops:   []fastview.Op{{Key: "textContent", Value: value}},
		}
	}
	return []fastview.EleUpdate{
		text("algorithm", board.Algorithm),
		text("iteration", fmt.Sprintf("%d", board.Iteration)),
		text("sweeps", fmt.Sprintf("%d", board.Sweeps)),
		text("delta", board.Delta),
		text("status", board.Status),
	}
}

func (sb *StatusBar) Parse(t *template.Template) (name string, err error) {
	name = sb.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<table id="` + sb.id + `" style="font-family: monospace; margin-bottom: 12px;">
			<tr><td>algorithm</td><td id="` + sb.id + `-algorithm">{{ .Algorithm }}</td></tr>
			<tr><td>iteration</td><td id="` + sb.id + `-iteration">{{ .Iteration }}</td></tr>
			<tr><td>sweeps</td><td id="` + sb.id + `-sweeps">{{ .Sweeps }}</td></tr>
			<tr><td>delta</td><td id="` + sb.id + `-delta">{{ .Delta }}</td></tr>
			<tr><td>status</td><td id="` + sb.id + `-status">{{ .Status }}</td></tr>
		</table>
		{{ end }}`)
	return
}
