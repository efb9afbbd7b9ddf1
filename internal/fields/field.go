// Package fields implements the typed attribute definitions built from the API
// schema and the format registry used to instantiate them.
package fields

// Field is a named, typed attribute with convert and validate behavior. Every
// operation receives the full sibling mapping of the entity being processed.
type Field interface {
	Name() string
	Format() string
	Options() Options

	// ToInner converts the user facing value of this field into its wire representation.
	ToInner(data map[string]any) any

	// ToRepresent converts the wire value of this field into its user facing value.
	ToRepresent(data map[string]any) any

	// ValidateValue checks the value against the field constraints and returns the value to submit.
	ValidateValue(data map[string]any) (any, error)
}

// Preparer is implemented by fields which need the navigation context to know
// what they point to. Prepare is called once after the field is built for a view
// and may return a different field which replaces it.
type Preparer interface {
	Prepare(ctx ResolveContext, path string) Field
}

// Lookup is a resolved list resource for a model.
type Lookup interface {
	// Path is the view path template, it may contain {param} placeholders.
	Path() string
	ModelName() string
}

// ResolveContext bundles what a field needs to resolve cross references.
type ResolveContext interface {
	Registry() *Registry

	// FindLookup returns the closest list resource for model as seen from the view path.
	FindLookup(path string, model string) (Lookup, bool)

	// LookupByPath returns the list resource registered under the view path.
	LookupByPath(path string) (Lookup, bool)

	// TopLevelLookup returns the shortest top level list resource for model.
	TopLevelLookup(model string) (Lookup, bool)

	// ModelFields returns the fields of a model by name.
	ModelFields(model string) ([]Field, bool)
}

// Target describes one prefetch lookup: the list resource and the raw identifier.
type Target struct {
	Path []string
	ID   any
}

// Prefetcher is implemented by fields whose value references another resource
// that can be loaded in bulk together with the page that contains it.
type Prefetcher interface {
	Field

	// PrefetchEligible reports if the value is a raw reference which should be resolved.
	PrefetchEligible(data map[string]any) bool

	// PrefetchTarget computes the list resource and identifier for the value in data.
	// view is the view path the data was loaded from and params the route parameters.
	PrefetchTarget(data map[string]any, view string, params map[string]string) (Target, bool)

	// PrefetchFilterName is the query parameter that filters the target list by identifier.
	PrefetchFilterName() string

	// MatchesRow reports if the loaded row is the one referenced from data.
	MatchesRow(data map[string]any, row map[string]any) bool

	// PrefetchValue is the merged value stored into data once the row was loaded.
	PrefetchValue(data map[string]any, row map[string]any) any
}

// ValueOf returns the raw value of the field inside data.
func ValueOf(f Field, data map[string]any) any {
	if data == nil {
		return nil
	}
	return data[f.Name()]
}
