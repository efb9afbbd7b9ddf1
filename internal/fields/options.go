package fields

// Options is the schema derived configuration of a field.
type Options struct {
	Name        string
	Title       string
	Description string
	Format      string
	Type        string
	Required    bool
	ReadOnly    bool
	Nullable    bool
	MinLength   *int
	MaxLength   *int
	Minimum     *float64
	Maximum     *float64
	Default     any
	Enum        []any
	Form        map[string]Options
	Additional  Additional
}

// Additional holds the format specific options found under additionalProperties.
type Additional struct {
	// Model is the referenced model name for fk, api_object and inner_api_object.
	Model      string
	ValueField string
	ViewField  string
	ListPaths  []string
	// UsePrefetch disables prefetching of a reference when set to false.
	UsePrefetch *bool

	// Field lists the parent fields of a dynamic field.
	Field   []string
	Types   map[string]string
	Choices map[string][]any
	// Callback adjusts the resolved options of a dynamic field from the parent values.
	Callback func(parents map[string]any, opts *Options)
}

// Label is the human name of the field used in validation errors.
func (o Options) Label() string {
	if o.Title != "" {
		return o.Title
	}
	return o.Name
}

// Clone returns a copy which shares no mutable state with o.
func (o Options) Clone() Options {
	c := o
	if o.Enum != nil {
		c.Enum = append([]any(nil), o.Enum...)
	}
	if o.Form != nil {
		c.Form = make(map[string]Options, len(o.Form))
		for k, v := range o.Form {
			c.Form[k] = v.Clone()
		}
	}
	if o.Additional.ListPaths != nil {
		c.Additional.ListPaths = append([]string(nil), o.Additional.ListPaths...)
	}
	if o.Additional.Field != nil {
		c.Additional.Field = append([]string(nil), o.Additional.Field...)
	}
	if o.Additional.Types != nil {
		c.Additional.Types = make(map[string]string, len(o.Additional.Types))
		for k, v := range o.Additional.Types {
			c.Additional.Types[k] = v
		}
	}
	if o.Additional.Choices != nil {
		c.Additional.Choices = make(map[string][]any, len(o.Additional.Choices))
		for k, v := range o.Additional.Choices {
			c.Additional.Choices[k] = append([]any(nil), v...)
		}
	}
	return c
}

// IntPtr is a helper for building options in code.
func IntPtr(v int) *int {
	return &v
}

// FloatPtr is a helper for building options in code.
func FloatPtr(v float64) *float64 {
	return &v
}
