package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/cockroachdb/errors"
)

// Datamodel is the set of models built from one schema document.
type Datamodel struct {
	Models []*Model
}

func (m *Datamodel) String() string {
	return fmt.Sprintf("Datamodel[models=%v]", m.Models)
}

// GetModel returns the model by name or nil.
func (m *Datamodel) GetModel(name string) *Model {
	for _, model := range m.Models {
		if model.Name == name {
			return model
		}
	}
	return nil
}

// Names returns the model names in sorted order.
func (m *Datamodel) Names() []string {
	res := make([]string, 0, len(m.Models))
	for _, model := range m.Models {
		res = append(res, model.Name)
	}
	sort.Strings(res)
	return res
}

// Model is a named set of fields shared by every QuerySet and Instance of one entity type.
type Model struct {
	Name   string
	order  []string
	fields map[string]fields.Field
	pk     string
	mutex  sync.RWMutex
}

// New builds a model from the fields in declaration order. The primary key is
// id, then pk, then the first declared field.
func New(name string, list []fields.Field) *Model {
	m := &Model{
		Name:   name,
		fields: make(map[string]fields.Field, len(list)),
	}
	for _, f := range list {
		if _, ok := m.fields[f.Name()]; !ok {
			m.order = append(m.order, f.Name())
		}
		m.fields[f.Name()] = f
	}
	switch {
	case m.fields["id"] != nil:
		m.pk = "id"
	case m.fields["pk"] != nil:
		m.pk = "pk"
	case len(m.order) > 0:
		m.pk = m.order[0]
	}
	return m
}

func (m *Model) String() string {
	return fmt.Sprintf("Model[name=%s,pk=%s,fields=%s]", m.Name, m.pk, strings.Join(m.FieldNames(), ","))
}

// PK returns the name of the primary key field.
func (m *Model) PK() string {
	return m.pk
}

// PKValue returns the primary key value of data.
func (m *Model) PKValue(data map[string]any) any {
	if data == nil || m.pk == "" {
		return nil
	}
	return data[m.pk]
}

// Field returns the field by name or nil.
func (m *Model) Field(name string) fields.Field {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.fields[name]
}

// FieldNames returns the field names in declaration order.
func (m *Model) FieldNames() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]string(nil), m.order...)
}

// Fields returns the fields in declaration order.
func (m *Model) Fields() []fields.Field {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	res := make([]fields.Field, 0, len(m.order))
	for _, name := range m.order {
		res = append(res, m.fields[name])
	}
	return res
}

// SetField replaces a field after it was prepared. It is only used while the
// session builds its views.
func (m *Model) SetField(f fields.Field) {
	m.mutex.Lock()
	if _, ok := m.fields[f.Name()]; !ok {
		m.order = append(m.order, f.Name())
	}
	m.fields[f.Name()] = f
	m.mutex.Unlock()
}

// PrefetchFields returns the fields capable of prefetching, limited to names when not empty.
func (m *Model) PrefetchFields(names ...string) []fields.Prefetcher {
	var res []fields.Prefetcher
	for _, f := range m.Fields() {
		p, ok := f.(fields.Prefetcher)
		if !ok {
			continue
		}
		if len(names) > 0 && !util.SliceContains(names, f.Name()) {
			continue
		}
		res = append(res, p)
	}
	return res
}

// ToInner converts every known field of data into its wire representation.
func (m *Model) ToInner(data map[string]any) map[string]any {
	res := make(map[string]any, len(data))
	for _, f := range m.Fields() {
		if _, ok := data[f.Name()]; !ok {
			continue
		}
		res[f.Name()] = f.ToInner(data)
	}
	return res
}

// ToRepresent converts every known field of data into its user facing value.
func (m *Model) ToRepresent(data map[string]any) map[string]any {
	res := make(map[string]any, len(data))
	for _, f := range m.Fields() {
		res[f.Name()] = f.ToRepresent(data)
	}
	return res
}

// Validate validates every writable field and returns the values to submit.
// The errors of all failing fields are joined.
func (m *Model) Validate(data map[string]any) (map[string]any, error) {
	res := make(map[string]any, len(data))
	var errs []error
	for _, f := range m.Fields() {
		if f.Options().ReadOnly {
			continue
		}
		val, err := f.ValidateValue(data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if val != nil {
			res[f.Name()] = val
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return res, nil
}
