package queryset

import (
	"context"
	"net/http"

	"github.com/FloThinksPi-Forks/vstutils/internal/model"
)

// Instance is one entity loaded by a QuerySet. Data is changed in place when
// prefetched references are merged in.
type Instance struct {
	Data  map[string]any
	model *model.Model
	qs    *QuerySet
}

func newInstance(data map[string]any, m *model.Model, qs *QuerySet) *Instance {
	if data == nil {
		data = map[string]any{}
	}
	return &Instance{Data: data, model: m, qs: qs}
}

// Model returns the model of the entity.
func (i *Instance) Model() *model.Model {
	return i.model
}

// QuerySet returns the QuerySet addressing this entity.
func (i *Instance) QuerySet() *QuerySet {
	return i.qs
}

// PK returns the primary key value.
func (i *Instance) PK() any {
	return i.model.PKValue(i.Data)
}

// Represent returns the user facing values of every field.
func (i *Instance) Represent() map[string]any {
	return i.model.ToRepresent(i.Data)
}

// Save validates the entity and replaces it on the server.
func (i *Instance) Save(ctx context.Context) error {
	data, err := i.model.Validate(i.model.ToInner(i.Data))
	if err != nil {
		return err
	}
	return i.write(ctx, http.MethodPut, data)
}

// Update sends a partial update with data.
func (i *Instance) Update(ctx context.Context, data map[string]any) error {
	return i.write(ctx, http.MethodPatch, data)
}

func (i *Instance) write(ctx context.Context, method string, data map[string]any) error {
	page := i.qs.Clone(Overrides{}, false)
	page.filters = map[string]any{}
	resp, err := page.send(ctx, page.FormRequest(method, data))
	if err != nil {
		return err
	}
	var updated map[string]any
	if err := resp.Decode(&updated); err != nil {
		return err
	}
	if len(updated) > 0 {
		i.Data = updated
	}
	i.qs.ClearCache()
	return nil
}

// Delete removes the entity on the server.
func (i *Instance) Delete(ctx context.Context) error {
	if _, err := i.qs.send(ctx, i.qs.FormRequest(http.MethodDelete, nil)); err != nil {
		return err
	}
	i.qs.ClearCache()
	return nil
}
