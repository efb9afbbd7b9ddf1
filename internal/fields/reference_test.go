package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLookup struct {
	path  string
	model string
}

func (l testLookup) Path() string      { return l.path }
func (l testLookup) ModelName() string { return l.model }

type testContext struct {
	reg     *Registry
	lookups map[string]testLookup
	models  map[string][]Field
	found   map[string]string
}

var _ ResolveContext = (*testContext)(nil)

func newTestContext(reg *Registry) *testContext {
	return &testContext{
		reg:     reg,
		lookups: map[string]testLookup{},
		models:  map[string][]Field{},
		found:   map[string]string{},
	}
}

func (c *testContext) Registry() *Registry { return c.reg }

func (c *testContext) FindLookup(path string, model string) (Lookup, bool) {
	if p, ok := c.found[path+"|"+model]; ok {
		return c.lookups[p], true
	}
	return c.TopLevelLookup(model)
}

func (c *testContext) LookupByPath(path string) (Lookup, bool) {
	l, ok := c.lookups[path]
	return l, ok
}

func (c *testContext) TopLevelLookup(model string) (Lookup, bool) {
	for _, l := range c.lookups {
		if l.model == model && len(l.path) > 0 && l.path == "/"+model+"/" {
			return l, true
		}
	}
	return nil, false
}

func (c *testContext) ModelFields(model string) ([]Field, bool) {
	f, ok := c.models[model]
	return f, ok
}

func TestFKConversions(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{Name: "owner", Format: "fk", Additional: Additional{Model: "user"}})
	merged := map[string]any{"owner": map[string]any{"value": float64(3), "prefetch_value": "admin"}}
	assert.Equal(t, float64(3), f.ToInner(merged))
	assert.Equal(t, "admin", f.ToRepresent(merged))
	assert.Equal(t, float64(3), f.ToInner(map[string]any{"owner": float64(3)}))
	assert.Equal(t, float64(3), f.ToRepresent(map[string]any{"owner": float64(3)}))
}

func TestFKPrepareAndPrefetch(t *testing.T) {
	reg := NewRegistry()
	ctx := newTestContext(reg)
	ctx.lookups["/user/"] = testLookup{path: "/user/", model: "user"}
	ctx.lookups["/project/{id}/member/"] = testLookup{path: "/project/{id}/member/", model: "user"}
	ctx.found["/project/{id}/task/|user"] = "/project/{id}/member/"

	f := reg.New(Options{Name: "owner", Format: "fk", Additional: Additional{Model: "user", ViewField: "username"}})
	p, ok := f.(Preparer)
	require.True(t, ok)
	f = p.Prepare(ctx, "/project/{id}/task/")
	f = f.(Preparer).Prepare(ctx, "/task/")

	fk := f.(*FK)
	require.Len(t, fk.Lookups("/project/{id}/task/"), 1)
	assert.Equal(t, "/project/{id}/member/", fk.Lookups("/project/{id}/task/")[0].Path())
	assert.Equal(t, "/user/", fk.Lookups("/task/")[0].Path())

	data := map[string]any{"owner": float64(7)}
	assert.True(t, fk.PrefetchEligible(data))
	target, ok := fk.PrefetchTarget(data, "/project/{id}/task/", map[string]string{"id": "12"})
	require.True(t, ok)
	assert.Equal(t, []string{"project", "12", "member"}, target.Path)
	assert.Equal(t, float64(7), target.ID)

	_, ok = fk.PrefetchTarget(data, "/project/{id}/task/", nil)
	assert.False(t, ok, "unresolved placeholders are skipped")
	_, ok = fk.PrefetchTarget(data, "/unknown/", nil)
	assert.False(t, ok, "missing lookups are skipped")

	assert.Equal(t, "id", fk.PrefetchFilterName())
	row := map[string]any{"id": float64(7), "username": "alice"}
	assert.True(t, fk.MatchesRow(data, row))
	assert.False(t, fk.MatchesRow(map[string]any{"owner": float64(8)}, row))
	assert.Equal(t, map[string]any{"value": float64(7), "prefetch_value": "alice"}, fk.PrefetchValue(data, row))

	assert.False(t, fk.PrefetchEligible(map[string]any{"owner": map[string]any{"value": 7}}))
	assert.False(t, fk.PrefetchEligible(map[string]any{"owner": nil}))
	assert.False(t, fk.PrefetchEligible(map[string]any{"owner": ""}))
}

func TestFKListPathsAndNoPrefetch(t *testing.T) {
	reg := NewRegistry()
	ctx := newTestContext(reg)
	ctx.lookups["/group/"] = testLookup{path: "/group/", model: "group"}
	disabled := false
	f := reg.New(Options{Name: "group", Format: "fk", Additional: Additional{ListPaths: []string{"/group/", "/missing/"}, UsePrefetch: &disabled}})
	fk := f.(Preparer).Prepare(ctx, "/user/").(*FK)
	require.Len(t, fk.Lookups("/user/"), 1)
	assert.False(t, fk.PrefetchEligible(map[string]any{"group": float64(1)}))
}

func TestFKIdentifierStringCompare(t *testing.T) {
	reg := NewRegistry()
	fk := reg.New(Options{Name: "owner", Format: "fk"}).(*FK)
	assert.True(t, fk.MatchesRow(map[string]any{"owner": "5"}, map[string]any{"id": float64(5)}))
	assert.False(t, fk.MatchesRow(map[string]any{"owner": "5"}, map[string]any{"id": float64(50)}))
}

func TestAPIObjectPrepare(t *testing.T) {
	reg := NewRegistry()
	ctx := newTestContext(reg)
	ctx.lookups["/user/"] = testLookup{path: "/user/", model: "user"}

	f := reg.New(Options{Name: "author", Format: "api_object", Additional: Additional{Model: "user"}})
	prepared := f.(Preparer).Prepare(ctx, "/post/")
	obj, ok := prepared.(*APIObject)
	require.True(t, ok)
	require.Len(t, obj.Lookups("/post/"), 1)
	assert.False(t, obj.PrefetchEligible(map[string]any{"author": float64(1)}))
	value := map[string]any{"id": float64(1)}
	assert.Equal(t, value, obj.ToRepresent(map[string]any{"author": value}))

	reg.Register("api_user", func(reg *Registry, opts Options) Field { return NewBase(opts) })
	f = reg.New(Options{Name: "author", Format: "api_object", Additional: Additional{Model: "user"}})
	prepared = f.(Preparer).Prepare(ctx, "/post/")
	assert.Equal(t, "api_user", prepared.Format())
	assert.Equal(t, "author", prepared.Name())
}
