package fields

import (
	"sort"
	"sync"
	"time"
)

// FallbackFormat is used for formats nothing is registered for.
const FallbackFormat = "string"

// Constructor builds a field of one format from its options.
type Constructor func(reg *Registry, opts Options) Field

// Registry maps a schema format to the constructor of its field.
type Registry struct {
	ctors    map[string]Constructor
	location *time.Location
	mutex    sync.RWMutex
}

// Register adds or replaces the constructor for format.
func (r *Registry) Register(format string, ctor Constructor) {
	r.mutex.Lock()
	r.ctors[format] = ctor
	r.mutex.Unlock()
}

// Has returns true if a constructor is registered for format.
func (r *Registry) Has(format string) bool {
	r.mutex.RLock()
	_, ok := r.ctors[format]
	r.mutex.RUnlock()
	return ok
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []string {
	r.mutex.RLock()
	res := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		res = append(res, k)
	}
	r.mutex.RUnlock()
	sort.Strings(res)
	return res
}

// New builds a field for opts.Format, unknown formats resolve to a plain string field.
func (r *Registry) New(opts Options) Field {
	r.mutex.RLock()
	ctor, ok := r.ctors[opts.Format]
	if !ok {
		ctor = r.ctors[FallbackFormat]
	}
	r.mutex.RUnlock()
	if opts.Format == "" {
		opts.Format = FallbackFormat
	}
	return ctor(r, opts)
}

// SetLocation sets the time zone used by date fields.
func (r *Registry) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	r.mutex.Lock()
	r.location = loc
	r.mutex.Unlock()
}

// Location returns the time zone used by date fields.
func (r *Registry) Location() *time.Location {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.location
}

func simple(build func(reg *Registry, opts Options) behavior) Constructor {
	return func(reg *Registry, opts Options) Field {
		return newBase(opts, build(reg, opts))
	}
}

func identity(_ *Registry, _ Options) behavior {
	return behavior{}
}

var identityFormats = []string{
	"string", "plain_text", "html", "textarea", "email", "password", "color",
	"autocomplete", "button", "hidden", "base", "file", "secretfile", "binfile",
	"namedbinfile", "namedbinimage", "multiplenamedbinfile", "multiplenamedbinimage",
	"multiselect", "string_array", "api_data",
}

// NewRegistry returns a registry populated with the built-in formats.
func NewRegistry() *Registry {
	r := &Registry{
		ctors:    make(map[string]Constructor),
		location: time.UTC,
	}
	for _, format := range identityFormats {
		r.Register(format, simple(identity))
	}
	for _, format := range []string{"integer", "int32", "int64"} {
		r.Register(format, simple(func(*Registry, Options) behavior { return numberBehavior(true) }))
	}
	for _, format := range []string{"number", "float", "double", "decimal"} {
		r.Register(format, simple(func(*Registry, Options) behavior { return numberBehavior(false) }))
	}
	r.Register("boolean", simple(func(*Registry, Options) behavior { return booleanBehavior() }))
	r.Register("choices", simple(func(_ *Registry, opts Options) behavior { return choicesBehavior(opts) }))
	r.Register("date", simple(func(reg *Registry, _ Options) behavior { return dateBehavior(reg.Location()) }))
	dateTime := simple(func(reg *Registry, _ Options) behavior { return dateTimeBehavior(reg.Location()) })
	r.Register("date_time", dateTime)
	r.Register("date-time", dateTime)
	r.Register("uptime", simple(func(*Registry, Options) behavior { return uptimeBehavior() }))
	r.Register("time_interval", simple(func(*Registry, Options) behavior { return timeIntervalBehavior() }))
	r.Register("crontab", simple(func(*Registry, Options) behavior { return crontabBehavior() }))
	r.Register("string_id", simple(func(*Registry, Options) behavior { return stringIDBehavior() }))
	r.Register("text_paragraph", simple(func(_ *Registry, opts Options) behavior { return textParagraphBehavior(opts) }))
	r.Register("json", simple(func(*Registry, Options) behavior { return jsonBehavior() }))
	for _, format := range []string{"fk", "fk_autocomplete", "fk_multi_autocomplete", "dynamic_fk"} {
		r.Register(format, NewFK)
	}
	r.Register("api_object", NewAPIObject)
	r.Register("inner_api_object", NewInnerAPIObject)
	r.Register("form", NewForm)
	r.Register("dynamic", NewDynamic)
	return r
}
