package fields

import "sync"

// Dynamic is a field whose concrete format depends on the current values of its
// parent fields. The concrete field is resolved again on every call.
type Dynamic struct {
	*Base
	reg   *Registry
	ctx   ResolveContext
	path  string
	mutex sync.RWMutex
}

var _ Preparer = (*Dynamic)(nil)

// NewDynamic is the constructor of the dynamic format.
func NewDynamic(reg *Registry, opts Options) Field {
	return &Dynamic{Base: newBase(opts, behavior{}), reg: reg}
}

// Prepare keeps the context so that resolved fields can be prepared in turn.
func (f *Dynamic) Prepare(ctx ResolveContext, path string) Field {
	f.mutex.Lock()
	if f.ctx == nil {
		f.ctx = ctx
		f.path = path
	}
	f.mutex.Unlock()
	return f
}

// Parents returns the names of the fields this field depends on.
func (f *Dynamic) Parents() []string {
	return f.opts.Additional.Field
}

// Resolve builds the concrete field for the sibling values in data.
func (f *Dynamic) Resolve(data map[string]any) Field {
	add := f.opts.Additional
	parents := make(map[string]any, len(add.Field))
	var format string
	var choices []any
	var hasChoices bool
	for _, name := range add.Field {
		value := data[name]
		parents[name] = value
		key := Stringify(value)
		if t, ok := add.Types[key]; ok {
			format = t
		}
		if c, ok := add.Choices[key]; ok {
			choices = c
			hasChoices = true
		}
	}
	opts := f.opts.Clone()
	opts.Additional = Additional{}
	opts.Format = format
	if hasChoices {
		if anyBoolean(choices) {
			opts.Format = "boolean"
		} else {
			opts.Format = "choices"
			opts.Enum = choices
		}
	}
	if add.Callback != nil {
		add.Callback(parents, &opts)
	}
	if opts.Format == "" || opts.Format == "dynamic" {
		opts.Format = FallbackFormat
	}
	field := f.reg.New(opts)
	f.mutex.RLock()
	ctx, path := f.ctx, f.path
	f.mutex.RUnlock()
	if p, ok := field.(Preparer); ok && ctx != nil {
		field = p.Prepare(ctx, path)
	}
	return field
}

func (f *Dynamic) ToInner(data map[string]any) any {
	return f.Resolve(data).ToInner(data)
}

func (f *Dynamic) ToRepresent(data map[string]any) any {
	return f.Resolve(data).ToRepresent(data)
}

func (f *Dynamic) ValidateValue(data map[string]any) (any, error) {
	return f.Resolve(data).ValidateValue(data)
}

func anyBoolean(list []any) bool {
	for _, v := range list {
		if _, ok := v.(bool); ok {
			return true
		}
	}
	return false
}
