// fastview builds server-side views that are pushed to a page as element updates:
// a data model is converted to a view-model, broadcast to one or more views, and each
// view turns the view-model into the attribute/content changes for its elements.
package fastview

import (
	"html/template"
)

// EleUpdate is an element id and the operations to apply to it.
type EleUpdate struct {
	EleId string
	// Op keys are attribute names, except the reserved key 'textContent' which sets the
	// element's text. For example {"fill", "red"} sets attribute fill to red.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server-side view: Parse adds its initial markup to a page template,
// and Updates streams the element changes that keep the markup current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse defines the view's template within parent and returns the template name.
	// Views may rely on funcs in the parent's func-map.
	Parse(parent *template.Template) (string, error)
}
