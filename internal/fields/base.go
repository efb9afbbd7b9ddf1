package fields

// converter transforms the raw value of a field in one direction.
type converter func(value any) any

// rule is a format specific validation applied after the common constraints.
type rule func(opts Options, value any) (any, error)

// behavior is the composition of the policies which make up a field format.
type behavior struct {
	toInner     converter
	toRepresent converter
	rules       []rule
}

func (b behavior) with(other behavior) behavior {
	if other.toInner != nil {
		b.toInner = other.toInner
	}
	if other.toRepresent != nil {
		b.toRepresent = other.toRepresent
	}
	b.rules = append(append([]rule(nil), b.rules...), other.rules...)
	return b
}

// Base is the plain field every format is built on.
type Base struct {
	opts     Options
	behavior behavior
}

var _ Field = (*Base)(nil)

func newBase(opts Options, b behavior) *Base {
	return &Base{opts: opts, behavior: b}
}

// NewBase returns a plain identity field.
func NewBase(opts Options) *Base {
	return newBase(opts, behavior{})
}

func (f *Base) Name() string {
	return f.opts.Name
}

func (f *Base) Format() string {
	return f.opts.Format
}

func (f *Base) Options() Options {
	return f.opts
}

func (f *Base) ToInner(data map[string]any) any {
	value := ValueOf(f, data)
	if f.behavior.toInner != nil {
		return f.behavior.toInner(value)
	}
	return value
}

func (f *Base) ToRepresent(data map[string]any) any {
	value := ValueOf(f, data)
	if f.behavior.toRepresent != nil {
		return f.behavior.toRepresent(value)
	}
	return value
}

func (f *Base) ValidateValue(data map[string]any) (any, error) {
	return validate(f.opts, ValueOf(f, data), f.behavior.rules)
}

// validate applies the common constraints in order and then the format rules.
func validate(opts Options, value any, rules []rule) (any, error) {
	var length int
	if truthy(value) {
		length = len([]rune(Stringify(value)))
	}
	if opts.MaxLength != nil && length > *opts.MaxLength {
		return nil, newValidationError(KindTooLong, opts, *opts.MaxLength)
	}
	if opts.MinLength != nil && *opts.MinLength > 0 {
		if length == 0 {
			if !opts.Required {
				return value, nil
			}
			return nil, newValidationError(KindRequired, opts, nil)
		}
		if length < *opts.MinLength {
			return nil, newValidationError(KindTooShort, opts, *opts.MinLength)
		}
	}
	if n, ok := numeric(value); ok {
		if opts.Maximum != nil && n > *opts.Maximum {
			return nil, newValidationError(KindTooLarge, opts, *opts.Maximum)
		}
		if opts.Minimum != nil && n < *opts.Minimum {
			return nil, newValidationError(KindTooSmall, opts, *opts.Minimum)
		}
	}
	if isAbsent(value) && opts.Required {
		if opts.Default != nil {
			return opts.Default, nil
		}
		return nil, newValidationError(KindRequired, opts, nil)
	}
	for _, r := range rules {
		v, err := r(opts, value)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return value, nil
}

// numeric only treats real numbers as numbers, numeric strings are bounded by length.
func numeric(v any) (float64, bool) {
	switch v.(type) {
	case string, bool, nil:
		return 0, false
	}
	return toFloat(v)
}
