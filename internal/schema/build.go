package schema

import (
	"sort"

	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/model"
)

func sortStrings(s []string) {
	sort.Strings(s)
}

// FieldFormat returns the format tag of a property: its format, its type, or
// api_object for a bare reference.
func (p *Property) FieldFormat() string {
	switch {
	case p.Format != "":
		return p.Format
	case p.Ref != "":
		return "api_object"
	}
	return p.Type
}

// Options converts the property into field options.
func (p *Property) Options(name string, required bool) fields.Options {
	opts := fields.Options{
		Name:        name,
		Title:       p.Title,
		Description: p.Description,
		Format:      p.FieldFormat(),
		Type:        p.Type,
		Required:    required,
		ReadOnly:    p.ReadOnly,
		Nullable:    p.Nullable,
		MinLength:   p.MinLength,
		MaxLength:   p.MaxLength,
		Minimum:     p.Minimum,
		Maximum:     p.Maximum,
		Default:     p.Default,
		Enum:        p.Enum,
	}
	if p.Ref != "" {
		opts.Additional.Model = RefName(p.Ref)
	}
	if add := p.AdditionalProperties; add != nil {
		if add.Model != nil && add.Model.Ref != "" {
			opts.Additional.Model = RefName(add.Model.Ref)
		}
		opts.Additional.ValueField = add.ValueField
		opts.Additional.ViewField = add.ViewField
		opts.Additional.ListPaths = add.ListPaths
		opts.Additional.UsePrefetch = add.UsePrefetch
		opts.Additional.Field = add.Field
		opts.Additional.Types = add.Types
		opts.Additional.Choices = add.Choices
		if len(add.Form) > 0 {
			opts.Form = make(map[string]fields.Options, len(add.Form))
			for sub, prop := range add.Form {
				opts.Form[sub] = prop.Options(sub, false)
			}
		}
	}
	return opts
}

// Fields builds the fields of a definition in document order.
func (d *Definition) Fields(reg *fields.Registry) []fields.Field {
	required := make(map[string]bool, len(d.Required))
	for _, name := range d.Required {
		required[name] = true
	}
	var res []fields.Field
	for _, name := range d.PropertyNames() {
		res = append(res, reg.New(d.Properties[name].Options(name, required[name])))
	}
	return res
}

// Models builds one model per definition.
func (d *Document) Models(reg *fields.Registry) *model.Datamodel {
	names := make([]string, 0, len(d.Definitions))
	for name := range d.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	dm := &model.Datamodel{}
	for _, name := range names {
		dm.Models = append(dm.Models, model.New(name, d.Definitions[name].Fields(reg)))
	}
	return dm
}
