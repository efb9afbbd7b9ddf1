package schema

import (
	"os"
	"testing"

	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestDocument(t *testing.T) *Document {
	buf, err := os.ReadFile("testdata/openapi.json")
	require.NoError(t, err)
	doc, err := Parse(buf)
	require.NoError(t, err)
	return doc
}

func TestParseDocument(t *testing.T) {
	doc := loadTestDocument(t)
	assert.Equal(t, "v1", doc.Info.Version)
	assert.Equal(t, "1", doc.Info.UserID.String())
	assert.Equal(t, "Europe/Moscow", doc.Info.Settings.Location().String())
	assert.Equal(t, "http://localhost:8080/api/v1", doc.BaseURL())
	assert.Equal(t, []string{"id", "name", "kind", "status", "assignee", "uptime"}, doc.Definitions["Task"].PropertyNames())
	assert.Equal(t, []string{"get", "delete"}, doc.Paths["/user/{id}/"].Methods())
}

func TestParseInvalidDocument(t *testing.T) {
	for name, data := range map[string]string{
		"not json":         `{`,
		"missing paths":    `{"info": {"version": "1"}, "definitions": {}}`,
		"bad min length":   `{"info": {"version": "1"}, "paths": {}, "definitions": {"A": {"properties": {"x": {"minLength": -1}}}}}`,
		"bad field parent": `{"info": {"version": "1"}, "paths": {}, "definitions": {"A": {"properties": {"x": {"additionalProperties": {"field": 1}}}}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDocument))
		})
	}
}

func TestStringList(t *testing.T) {
	doc, err := Parse([]byte(`{"info": {"version": "1"}, "paths": {}, "definitions": {"A": {"properties": {
		"one": {"format": "dynamic", "additionalProperties": {"field": "kind"}},
		"many": {"format": "dynamic", "additionalProperties": {"field": ["a", "b"]}},
		"flag": {"type": "object", "additionalProperties": true}
	}}}}`))
	require.NoError(t, err)
	props := doc.Definitions["A"].Properties
	assert.Equal(t, StringList{"kind"}, props["one"].AdditionalProperties.Field)
	assert.Equal(t, StringList{"a", "b"}, props["many"].AdditionalProperties.Field)
	assert.Empty(t, props["flag"].AdditionalProperties.Field)
}

func TestModels(t *testing.T) {
	doc := loadTestDocument(t)
	reg := fields.NewRegistry()
	dm := doc.Models(reg)
	assert.Equal(t, []string{"Project", "Task", "User"}, dm.Names())

	task := dm.GetModel("Task")
	require.NotNil(t, task)
	assert.Equal(t, "id", task.PK())
	assert.Equal(t, "dynamic", task.Field("status").Format())
	assert.Equal(t, "fk", task.Field("assignee").Format())
	assert.Equal(t, "User", task.Field("assignee").Options().Additional.Model)
	assert.Equal(t, "username", task.Field("assignee").Options().Additional.ViewField)
	assert.True(t, task.Field("name").Options().Required)
	assert.Equal(t, "integer", task.Field("id").Format())

	user := dm.GetModel("User")
	require.NotNil(t, user)
	assert.Equal(t, 150, *user.Field("username").Options().MaxLength)
}

func TestViews(t *testing.T) {
	doc := loadTestDocument(t)
	views := doc.BuildViews()
	assert.Len(t, views.All(), 8)

	list, ok := views.List("/project/{id}/task/")
	require.True(t, ok)
	assert.Equal(t, "Task", list.Model)
	assert.Equal(t, 3, list.Level)

	page, ok := views.Get("project/{id}/task/{task_id}")
	require.True(t, ok)
	assert.Equal(t, PageView, page.Type)
	assert.Equal(t, "Task", page.Model)

	_, ok = views.List("/user/{id}/")
	assert.False(t, ok)

	below, ok := views.PageOf(list)
	require.True(t, ok)
	assert.Equal(t, "/project/{id}/task/{task_id}/", below.Path())
}

func TestFindList(t *testing.T) {
	views := loadTestDocument(t).BuildViews()

	view, ok := views.FindList("/project/{id}/task/", "User")
	require.True(t, ok)
	assert.Equal(t, "/project/{id}/member/", view.Path(), "neighbour list wins")

	view, ok = views.FindList("/task/", "User")
	require.True(t, ok)
	assert.Equal(t, "/user/", view.Path(), "top level fallback")

	view, ok = views.FindList("/user/", "User")
	require.True(t, ok)
	assert.Equal(t, "/user/", view.Path())

	_, ok = views.FindList("/task/", "Missing")
	assert.False(t, ok)

	view, ok = views.TopLevel("Task")
	require.True(t, ok)
	assert.Equal(t, "/task/", view.Path())
}

func TestMatch(t *testing.T) {
	views := loadTestDocument(t).BuildViews()

	view, params, ok := views.Match("/project/7/task/12/")
	require.True(t, ok)
	assert.Equal(t, "/project/{id}/task/{task_id}/", view.Path())
	assert.Equal(t, map[string]string{"id": "7", "task_id": "12"}, params)

	view, params, ok = views.Match("user")
	require.True(t, ok)
	assert.Equal(t, "/user/", view.Path())
	assert.Empty(t, params)

	_, _, ok = views.Match("/project/7/unknown/")
	assert.False(t, ok)
}
