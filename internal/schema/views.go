package schema

import (
	"sort"
	"strings"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
)

// ViewType tells list resources from single object pages.
type ViewType string

const (
	ListView ViewType = "list"
	PageView ViewType = "page"
)

// View is one resource path of the API bound to a model.
type View struct {
	Template string
	Type     ViewType
	Model    string
	Level    int
	Methods  []string
}

// Path returns the path template, it may contain {param} placeholders.
func (v *View) Path() string {
	return v.Template
}

// ModelName returns the model the view serves.
func (v *View) ModelName() string {
	return v.Model
}

// Views indexes the views of a document by path.
type Views struct {
	byPath map[string]*View
	list   []*View
}

// BuildViews derives the views from the paths of the document. A path whose
// last segment is a {param} is a page, anything else is a list.
func (d *Document) BuildViews() *Views {
	v := &Views{byPath: make(map[string]*View, len(d.Paths))}
	for path, item := range d.Paths {
		segs := util.SplitPath(path)
		template := util.JoinPath(segs...)
		view := &View{
			Template: template,
			Type:     ListView,
			Level:    len(segs),
			Methods:  item.Methods(),
		}
		if len(segs) > 0 && isParam(segs[len(segs)-1]) {
			view.Type = PageView
		}
		view.Model = responseModel(item, view.Type)
		v.byPath[template] = view
		v.list = append(v.list, view)
	}
	sort.Slice(v.list, func(i, j int) bool {
		return v.list[i].Template < v.list[j].Template
	})
	return v
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func responseModel(item *PathItem, kind ViewType) string {
	var schema *Property
	for _, op := range []*Operation{item.Get, item.Post, item.Put, item.Patch} {
		if op == nil {
			continue
		}
		for _, code := range []string{"200", "201"} {
			if resp := op.Responses[code]; resp != nil && resp.Schema != nil {
				schema = resp.Schema
				break
			}
		}
		if schema != nil {
			break
		}
	}
	if schema == nil {
		return ""
	}
	if schema.Ref != "" {
		return RefName(schema.Ref)
	}
	if kind == ListView {
		if results := schema.Properties["results"]; results != nil && results.Items != nil {
			return RefName(results.Items.Ref)
		}
		if schema.Items != nil {
			return RefName(schema.Items.Ref)
		}
	}
	return ""
}

// All returns the views sorted by path.
func (v *Views) All() []*View {
	return v.list
}

// Get returns the view registered for path.
func (v *Views) Get(path string) (*View, bool) {
	view, ok := v.byPath[util.JoinPath(path)]
	return view, ok
}

// List returns the list view registered for path.
func (v *Views) List(path string) (*View, bool) {
	view, ok := v.Get(path)
	if !ok || view.Type != ListView {
		return nil, false
	}
	return view, true
}

// FindList finds the list view for model closest to path: the path itself,
// then lists sharing a prefix with path after stripping two segments at a time,
// then the top level lists.
func (v *Views) FindList(path string, model string) (*View, bool) {
	if view, ok := v.List(path); ok && view.Model == model {
		return view, true
	}
	segs := util.SplitPath(path)
	for n := len(segs) - 2; n > 0; n -= 2 {
		prefix := util.JoinPath(segs[:n]...)
		var best *View
		for _, view := range v.list {
			if view.Type != ListView || view.Model != model || view.Level > len(segs) {
				continue
			}
			if !strings.HasPrefix(view.Template, prefix) {
				continue
			}
			if best == nil || view.Level < best.Level {
				best = view
			}
		}
		if best != nil {
			return best, true
		}
	}
	return v.TopLevel(model)
}

// TopLevel returns the list view for model with the fewest segments. Ties go
// to the longest path.
func (v *Views) TopLevel(model string) (*View, bool) {
	var best *View
	for _, view := range v.list {
		if view.Type != ListView || view.Model != model {
			continue
		}
		if best == nil || view.Level < best.Level ||
			(view.Level == best.Level && len(view.Template) > len(best.Template)) {
			best = view
		}
	}
	return best, best != nil
}

// PageOf returns the page view below a list view, if the API declares one.
func (v *Views) PageOf(list *View) (*View, bool) {
	for _, view := range v.list {
		if view.Type != PageView || view.Level != list.Level+1 {
			continue
		}
		if strings.HasPrefix(view.Template, list.Template) {
			return view, true
		}
	}
	return nil, false
}

// Match finds the view whose template matches the concrete path and returns
// the values of its {param} segments. Templates with fewer params win.
func (v *Views) Match(path string) (*View, map[string]string, bool) {
	segs := util.SplitPath(path)
	var best *View
	var bestParams map[string]string
	for _, view := range v.list {
		tsegs := util.SplitPath(view.Template)
		if len(tsegs) != len(segs) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range tsegs {
			if isParam(seg) {
				params[strings.Trim(seg, "{}")] = segs[i]
				continue
			}
			if seg != segs[i] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if best == nil || len(params) < len(bestParams) {
			best, bestParams = view, params
		}
	}
	return best, bestParams, best != nil
}
