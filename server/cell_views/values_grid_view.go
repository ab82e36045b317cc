package cell_views

import (
	"fmt"
	"html/template"

	channerics "github.com/niceyeti/channerics/channels"

	"gridmdp/server/fastview"
)

const cellDim = 100

// ValuesGrid draws the grid: one square per state with its value and policy arrow,
// shaded by value.
type ValuesGrid struct {
	// ids must not contain hyphens, which html/template's template directive rejects.
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	boards <-chan Board,
) *ValuesGrid {
	vg := &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, boards, vg.onUpdate)
	return vg
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

// onUpdate returns the element changes that bring the grid up to board.
func (vg *ValuesGrid) onUpdate(board Board) (ops []fastview.EleUpdate) {
	for _, row := range board.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-value-rect", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "fill", Value: cell.Fill},
					},
				},
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-value-text", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "textContent", Value: fmt.Sprintf("%.2f", cell.Value)},
					},
				},
				fastview.EleUpdate{
					EleId: fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y),
					Ops: []fastview.Op{
						{Key: "transform", Value: fmt.Sprintf("rotate(%d)", cell.PolicyArrowRotation)},
						{Key: "visibility", Value: cell.ArrowVisibility},
					},
				})
		}
	}
	return
}

// Parse defines the grid's svg. It relies on the parent's add, mult, and div funcs.
func (vg *ValuesGrid) Parse(t *template.Template) (name string, err error) {
	name = vg.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + vg.id + `">
			{{ $num_cells := len .Cells }}
			{{ $cell_width := ` + fmt.Sprintf("%d", cellDim) + ` }}
			{{ $width := mult $cell_width $num_cells }}
			{{ $half_width := div $cell_width 2 }}
			<svg width="{{ add $width 1 }}px" height="{{ add $width 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect id="{{$cell.X}}-{{$cell.Y}}-value-rect"
							x="{{ mult $cell.X $cell_width }}"
							y="{{ mult $cell.Y $cell_width }}"
							width="{{ $cell_width }}"
							height="{{ $cell_width }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{$cell.X}}-{{$cell.Y}}-value-text"
							x="{{ add (mult $cell.X $cell_width) $half_width }}"
							y="{{ add (mult $cell.Y $cell_width) 30 }}"
							stroke="blue"
							dominant-baseline="text-top" text-anchor="middle"
							>{{ printf "%.2f" $cell.Value }}</text>
						<g transform="translate({{ add (mult $cell.X $cell_width) $half_width }}, {{ add (mult $cell.Y $cell_width) 65 }})">
							<text id="{{$cell.X}}-{{$cell.Y}}-policy-arrow"
								stroke="blue" stroke-width="1" font-size="24"
								dominant-baseline="central" text-anchor="middle"
								transform="rotate({{ $cell.PolicyArrowRotation }})"
								visibility="{{ $cell.ArrowVisibility }}"
								>&uarr;</text>
						</g>
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
