package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicTypes(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{
		Name:   "status",
		Format: "dynamic",
		Additional: Additional{
			Field: []string{"kind"},
			Types: map[string]string{"active": "boolean", "note": "string"},
		},
	})
	assert.Equal(t, "hello", f.ToRepresent(map[string]any{"kind": "note", "status": "hello"}))
	assert.Equal(t, true, f.ToRepresent(map[string]any{"kind": "active", "status": "true"}))
	assert.Equal(t, "true", f.ToRepresent(map[string]any{"kind": "unknown", "status": "true"}))
}

func TestDynamicLastParentWins(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{
		Name:   "value",
		Format: "dynamic",
		Additional: Additional{
			Field: []string{"a", "b"},
			Types: map[string]string{"num": "integer", "flag": "boolean"},
		},
	}).(*Dynamic)
	assert.Equal(t, "boolean", f.Resolve(map[string]any{"a": "num", "b": "flag"}).Format())
	assert.Equal(t, "integer", f.Resolve(map[string]any{"a": "flag", "b": "num"}).Format())
	assert.Equal(t, "integer", f.Resolve(map[string]any{"a": "num", "b": "other"}).Format())
	assert.Equal(t, []string{"a", "b"}, f.Parents())
}

func TestDynamicChoices(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{
		Name:     "level",
		Format:   "dynamic",
		Required: true,
		Title:    "Level",
		Additional: Additional{
			Field: []string{"mode"},
			Choices: map[string][]any{
				"simple": {"low", "high"},
				"toggle": {true, false},
			},
		},
	}).(*Dynamic)

	resolved := f.Resolve(map[string]any{"mode": "simple"})
	assert.Equal(t, "choices", resolved.Format())
	assert.Equal(t, []any{"low", "high"}, resolved.Options().Enum)
	assert.True(t, resolved.Options().Required)
	assert.Equal(t, "Level", resolved.Options().Title)

	_, err := f.ValidateValue(map[string]any{"mode": "simple", "level": "medium"})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidChoice, verr.Kind)

	assert.Equal(t, "boolean", f.Resolve(map[string]any{"mode": "toggle"}).Format())
	assert.Equal(t, false, f.ToInner(map[string]any{"mode": "toggle", "level": "0"}))
}

func TestDynamicReResolvesOnEveryCall(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{
		Name:   "v",
		Format: "dynamic",
		Additional: Additional{
			Field: []string{"t"},
			Types: map[string]string{"int": "integer", "str": "string"},
		},
	})
	data := map[string]any{"t": "int", "v": "12"}
	assert.Equal(t, int64(12), f.ToInner(data))
	data["t"] = "str"
	assert.Equal(t, "12", f.ToInner(data))
}

func TestDynamicCallback(t *testing.T) {
	reg := NewRegistry()
	f := reg.New(Options{
		Name:   "size",
		Format: "dynamic",
		Additional: Additional{
			Field: []string{"unit"},
			Callback: func(parents map[string]any, opts *Options) {
				if parents["unit"] == "percent" {
					opts.Format = "integer"
					opts.Maximum = FloatPtr(100)
				}
			},
		},
	})
	_, err := f.ValidateValue(map[string]any{"unit": "percent", "size": float64(120)})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, KindTooLarge, verr.Kind)
	val, err := f.ValidateValue(map[string]any{"unit": "px", "size": float64(120)})
	require.NoError(t, err)
	assert.Equal(t, float64(120), val)
}

func TestDynamicPreparesResolvedField(t *testing.T) {
	reg := NewRegistry()
	ctx := newTestContext(reg)
	ctx.lookups["/user/"] = testLookup{path: "/user/", model: "user"}
	f := reg.New(Options{
		Name:   "ref",
		Format: "dynamic",
		Additional: Additional{
			Field: []string{"kind"},
			Types: map[string]string{"user": "fk"},
			Callback: func(parents map[string]any, opts *Options) {
				opts.Additional.Model = "user"
			},
		},
	})
	f = f.(Preparer).Prepare(ctx, "/post/")
	resolved := f.(*Dynamic).Resolve(map[string]any{"kind": "user"})
	fk, ok := resolved.(*FK)
	require.True(t, ok)
	assert.Len(t, fk.Lookups("/post/"), 1)
}
