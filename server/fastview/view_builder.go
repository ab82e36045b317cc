package fastview

import (
	"context"
	"errors"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewBuilder builds one or more views that share a common view-model. Build wires the
// source channel through the conversion and out to every view.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source      <-chan DataModel
	viewModelFn func(DataModel) ViewModel
	builderFns  []ViewBuilderFunc[ViewModel]
	// nil done is allowed; the views then live as long as the source.
	done <-chan struct{}
}

// ViewBuilderFunc builds a view from a view-model channel and a done channel for cleanup.
type ViewBuilderFunc[ViewModel any] func(done <-chan struct{}, models <-chan ViewModel) ViewComponent

func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the data source and the function converting its items to view-models.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	input <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = input
	vb.viewModelFn = convert
	return vb
}

// WithView adds a view. Views are returned by Build in the order they were added.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	builderFn ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.builderFns = append(vb.builderFns, builderFn)
	return vb
}

// WithContext closes every downstream channel when ctx is cancelled.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

var (
	// ErrNoViews is returned when Build is called before any WithView.
	ErrNoViews = errors.New("fastview: no views to build, WithView must be called")
	// ErrNoModel is returned when Build is called before WithModel.
	ErrNoModel = errors.New("fastview: no model specified, WithModel must be called")
)

// Build runs the stored builders and returns the views.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() (views []ViewComponent, err error) {
	if len(vb.builderFns) == 0 {
		return nil, ErrNoViews
	}
	if vb.viewModelFn == nil || vb.source == nil {
		return nil, ErrNoModel
	}

	models := channerics.Convert(vb.done, vb.source, vb.viewModelFn)
	fanout := channerics.Broadcast(vb.done, models, len(vb.builderFns))
	for i, build := range vb.builderFns {
		views = append(views, build(vb.done, fanout[i]))
	}
	return
}

// FanIn merges the views' update channels into one, batched over window. Within a
// batch only the latest update per element id is kept. A pending batch is flushed once
// the window elapses, even if the views have gone quiet.
func FanIn(
	done <-chan struct{},
	views []ViewComponent,
	window time.Duration,
) <-chan []EleUpdate {
	inputs := make([]<-chan []EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batch(done, channerics.Merge(done, inputs...), window)
}

func batch(
	done <-chan struct{},
	source <-chan []EleUpdate,
	window time.Duration,
) <-chan []EleUpdate {
	output := make(chan []EleUpdate)

	go func() {
		defer close(output)

		pending := map[string]EleUpdate{}
		order := []string{}
		flush := func() bool {
			if len(order) == 0 {
				return true
			}
			updates := make([]EleUpdate, 0, len(order))
			for _, id := range order {
				updates = append(updates, pending[id])
			}
			select {
			case output <- updates:
				pending = map[string]EleUpdate{}
				order = order[:0]
				return true
			case <-done:
				return false
			}
		}

		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					flush()
					return
				}
				for _, update := range updates {
					if _, seen := pending[update.EleId]; !seen {
						order = append(order, update.EleId)
					}
					pending[update.EleId] = update
				}
			case <-ticker.C:
				if !flush() {
					return
				}
			}
		}
	}()

	return output
}
