package fields

import (
	"sort"
	"sync"
)

// Form is a composite field whose value is a mapping validated by generated sub-fields.
type Form struct {
	*Base
	fields []Field
}

var _ Preparer = (*Form)(nil)

// NewForm builds the sub-fields from opts.Form.
func NewForm(reg *Registry, opts Options) Field {
	names := make([]string, 0, len(opts.Form))
	for name := range opts.Form {
		names = append(names, name)
	}
	sort.Strings(names)
	f := &Form{Base: newBase(opts, behavior{})}
	for _, name := range names {
		sub := opts.Form[name].Clone()
		if sub.Name == "" {
			sub.Name = name
		}
		f.fields = append(f.fields, reg.New(sub))
	}
	return f
}

// Fields returns the generated sub-fields sorted by name.
func (f *Form) Fields() []Field {
	return f.fields
}

func (f *Form) Prepare(ctx ResolveContext, path string) Field {
	for i, sub := range f.fields {
		if p, ok := sub.(Preparer); ok {
			f.fields[i] = p.Prepare(ctx, path)
		}
	}
	return f
}

func (f *Form) apply(data map[string]any, fn func(Field, map[string]any) any) any {
	value := ValueOf(f, data)
	inner, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(f.fields))
	for _, sub := range f.fields {
		out[sub.Name()] = fn(sub, inner)
	}
	return out
}

func (f *Form) ToInner(data map[string]any) any {
	return f.apply(data, func(sub Field, inner map[string]any) any { return sub.ToInner(inner) })
}

func (f *Form) ToRepresent(data map[string]any) any {
	return f.apply(data, func(sub Field, inner map[string]any) any { return sub.ToRepresent(inner) })
}

func (f *Form) ValidateValue(data map[string]any) (any, error) {
	value, err := f.Base.ValidateValue(data)
	if err != nil {
		return nil, err
	}
	inner, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}
	out := make(map[string]any, len(f.fields))
	for _, sub := range f.fields {
		v, err := sub.ValidateValue(inner)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[sub.Name()] = v
		}
	}
	return out, nil
}

// InnerAPIObject is a two level nested object: each key of the value holds an
// object of another model.
type InnerAPIObject struct {
	*Base
	realFields map[string][]Field
	mutex      sync.RWMutex
}

var _ Preparer = (*InnerAPIObject)(nil)

// NewInnerAPIObject is the constructor of the inner_api_object format.
func NewInnerAPIObject(_ *Registry, opts Options) Field {
	return &InnerAPIObject{
		Base:       newBase(opts, behavior{}),
		realFields: make(map[string][]Field),
	}
}

// Prepare builds the sub-fields from the referenced model, once.
func (f *InnerAPIObject) Prepare(ctx ResolveContext, _ string) Field {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.realFields) > 0 {
		return f
	}
	outer, ok := ctx.ModelFields(f.opts.Additional.Model)
	if !ok {
		return f
	}
	for _, key := range outer {
		items, ok := ctx.ModelFields(key.Options().Additional.Model)
		if !ok {
			continue
		}
		f.realFields[key.Name()] = items
	}
	return f
}

// RealFields returns the sub-fields for one key of the value.
func (f *InnerAPIObject) RealFields(key string) []Field {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.realFields[key]
}

func (f *InnerAPIObject) ValidateValue(data map[string]any) (any, error) {
	value, err := f.Base.ValidateValue(data)
	if err != nil {
		return nil, err
	}
	inner, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}
	f.mutex.RLock()
	keys := make([]string, 0, len(f.realFields))
	for key := range f.realFields {
		keys = append(keys, key)
	}
	f.mutex.RUnlock()
	sort.Strings(keys)
	for _, key := range keys {
		keyData, _ := inner[key].(map[string]any)
		if keyData == nil {
			keyData = map[string]any{}
		}
		for _, item := range f.RealFields(key) {
			if _, err := item.ValidateValue(keyData); err != nil {
				return nil, err
			}
		}
	}
	return value, nil
}
