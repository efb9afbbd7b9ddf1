package fields

import (
	"sync"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
)

const (
	defaultValueField = "id"
	defaultViewField  = "name"
)

// FK is a reference to a row of another model by identifier.
type FK struct {
	*Base
	querysets map[string][]Lookup
	mutex     sync.RWMutex
}

var (
	_ Preparer   = (*FK)(nil)
	_ Prefetcher = (*FK)(nil)
)

func unwrapKey(key string) converter {
	return func(v any) any {
		if m, ok := v.(map[string]any); ok {
			return m[key]
		}
		return v
	}
}

// NewFK is the constructor of fk and its autocomplete variants.
func NewFK(_ *Registry, opts Options) Field {
	if opts.Additional.ValueField == "" {
		opts.Additional.ValueField = defaultValueField
	}
	if opts.Additional.ViewField == "" {
		opts.Additional.ViewField = defaultViewField
	}
	return &FK{
		Base: newBase(opts, behavior{
			toInner:     unwrapKey("value"),
			toRepresent: unwrapKey("prefetch_value"),
		}),
		querysets: make(map[string][]Lookup),
	}
}

// Prepare attaches the lookups for the view path, once per path.
func (f *FK) Prepare(ctx ResolveContext, path string) Field {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if _, ok := f.querysets[path]; ok {
		return f
	}
	add := f.opts.Additional
	var lookups []Lookup
	if len(add.ListPaths) > 0 {
		for _, p := range add.ListPaths {
			if l, ok := ctx.LookupByPath(p); ok {
				lookups = append(lookups, l)
			}
		}
	} else if add.Model != "" {
		if l, ok := ctx.FindLookup(path, add.Model); ok {
			lookups = append(lookups, l)
		}
	}
	f.querysets[path] = lookups
	return f
}

// SetLookups attaches lookups for path explicitly.
func (f *FK) SetLookups(path string, lookups ...Lookup) {
	f.mutex.Lock()
	f.querysets[path] = lookups
	f.mutex.Unlock()
}

// Lookups returns the lookups attached for the view path.
func (f *FK) Lookups(path string) []Lookup {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.querysets[path]
}

func (f *FK) PrefetchEligible(data map[string]any) bool {
	if p := f.opts.Additional.UsePrefetch; p != nil && !*p {
		return false
	}
	switch v := ValueOf(f, data).(type) {
	case nil:
		return false
	case string:
		return v != ""
	case map[string]any:
		return false
	}
	return true
}

// PrefetchTarget skips values whose lookup is missing or whose path still has
// unresolved parameters.
func (f *FK) PrefetchTarget(data map[string]any, view string, params map[string]string) (Target, bool) {
	lookups := f.Lookups(view)
	if len(lookups) == 0 {
		return Target{}, false
	}
	path, ok := util.FormatPath(lookups[0].Path(), params)
	if !ok {
		return Target{}, false
	}
	return Target{Path: util.SplitPath(path), ID: ValueOf(f, data)}, true
}

func (f *FK) PrefetchFilterName() string {
	return f.opts.Additional.ValueField
}

func (f *FK) MatchesRow(data map[string]any, row map[string]any) bool {
	return sameValue(ValueOf(f, data), row[f.opts.Additional.ValueField])
}

func (f *FK) PrefetchValue(_ map[string]any, row map[string]any) any {
	return map[string]any{
		"value":          row[f.opts.Additional.ValueField],
		"prefetch_value": row[f.opts.Additional.ViewField],
	}
}

// APIObject is a nested object of another model returned inline by the API.
type APIObject struct {
	*FK
}

var _ Preparer = (*APIObject)(nil)

// NewAPIObject is the constructor of the api_object format.
func NewAPIObject(reg *Registry, opts Options) Field {
	fk := NewFK(reg, opts).(*FK)
	fk.Base.behavior = behavior{}
	return &APIObject{FK: fk}
}

// Prepare switches to a format registered for the model, api_<model>, when one exists.
func (f *APIObject) Prepare(ctx ResolveContext, path string) Field {
	model := f.opts.Additional.Model
	if model == "" {
		return f
	}
	if format := "api_" + model; ctx.Registry().Has(format) {
		opts := f.opts.Clone()
		opts.Format = format
		return ctx.Registry().New(opts)
	}
	if l, ok := ctx.TopLevelLookup(model); ok {
		f.SetLookups(path, l)
	}
	return f
}

func (f *APIObject) PrefetchEligible(map[string]any) bool {
	return false
}
