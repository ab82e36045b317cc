package fastview

import (
	"context"
	"fmt"
	"html/template"
	"testing"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// textView publishes its view-model as the text of a single element.
type textView struct {
	id      string
	updates <-chan []EleUpdate
}

func newTextView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, models <-chan string) ViewComponent {
		tv := &textView{id: id}
		tv.updates = channerics.Convert(done, models, func(s string) []EleUpdate {
			return []EleUpdate{{EleId: tv.id, Ops: []Op{{Key: "textContent", Value: s}}}}
		})
		return tv
	}
}

func (tv *textView) Updates() <-chan []EleUpdate {
	return tv.updates
}

func (tv *textView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + tv.id + `" }}<p id="` + tv.id + `">{{ . }}</p>{{ end }}`)
	return tv.id, err
}

func receive(ch <-chan []EleUpdate) []EleUpdate {
	select {
	case updates := <-ch:
		return updates
	case <-time.After(2 * time.Second):
		return nil
	}
}

func TestViewBuilder(t *testing.T) {
	Convey("When the builder is incomplete", t, func() {
		_, err := NewViewBuilder[int, string]().
			WithModel(make(chan int), func(x int) string { return fmt.Sprint(x) }).
			Build()
		So(err, ShouldEqual, ErrNoViews)

		_, err = NewViewBuilder[int, string]().
			WithView(newTextView("a")).
			Build()
		So(err, ShouldEqual, ErrNoModel)
	})

	Convey("When the builder succeeds", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		input := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(input, func(x int) string { return fmt.Sprint(x * 2) }).
			WithView(newTextView("first")).
			WithView(newTextView("second")).
			Build()
		So(err, ShouldBeNil)
		So(len(views), ShouldEqual, 2)

		Convey("Every view sees every converted model", func() {
			go func() { input <- 21 }()
			first := receive(views[0].Updates())
			second := receive(views[1].Updates())
			So(first, ShouldResemble, []EleUpdate{{EleId: "first", Ops: []Op{{Key: "textContent", Value: "42"}}}})
			So(second[0].EleId, ShouldEqual, "second")
			So(second[0].Ops[0].Value, ShouldEqual, "42")
		})

		Convey("FanIn keeps only the latest update per element", func() {
			merged := FanIn(ctx.Done(), views, 50*time.Millisecond)
			go func() {
				input <- 1
				input <- 2
			}()

			latest := map[string]string{}
			deadline := time.After(2 * time.Second)
			for latest["first"] != "4" || latest["second"] != "4" {
				select {
				case updates := <-merged:
					for _, update := range updates {
						latest[update.EleId] = update.Ops[0].Value
					}
				case <-deadline:
					So(latest, ShouldResemble, map[string]string{"first": "4", "second": "4"})
					return
				}
			}
			So(latest, ShouldResemble, map[string]string{"first": "4", "second": "4"})
		})
	})

	Convey("When the source closes, the batch is flushed and the output closes", t, func() {
		source := make(chan []EleUpdate)
		out := batch(nil, source, time.Hour)
		go func() {
			source <- []EleUpdate{{EleId: "x", Ops: []Op{{Key: "fill", Value: "red"}}}}
			source <- []EleUpdate{{EleId: "x", Ops: []Op{{Key: "fill", Value: "blue"}}}}
			close(source)
		}()

		updates := receive(out)
		So(updates, ShouldResemble, []EleUpdate{{EleId: "x", Ops: []Op{{Key: "fill", Value: "blue"}}}})
		_, ok := <-out
		So(ok, ShouldBeFalse)
	})
}
