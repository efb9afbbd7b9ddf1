package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"project", "1", "task"}, SplitPath("/project/1/task/"))
	assert.Equal(t, []string{"user"}, SplitPath("user"))
	assert.Equal(t, []string{}, SplitPath("/"))
	assert.Equal(t, []string{}, SplitPath(""))
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/project/1/task/", JoinPath("project", "/1/", "task"))
	assert.Equal(t, "/project/1/", JoinPath("/project/", "1"))
	assert.Equal(t, "/", JoinPath())
}

func TestFormatPath(t *testing.T) {
	path, ok := FormatPath("/project/{id}/task/{task_id}/", map[string]string{"id": "1", "task_id": "22"})
	assert.True(t, ok)
	assert.Equal(t, "/project/1/task/22/", path)

	path, ok = FormatPath("/project/{id}/task/", map[string]string{})
	assert.False(t, ok)
	assert.Equal(t, "/project/{id}/task/", path)

	path, ok = FormatPath("/user/", nil)
	assert.True(t, ok)
	assert.Equal(t, "/user/", path)
}

func TestSliceContains(t *testing.T) {
	assert.True(t, SliceContains([]string{"a", "b"}, "b"))
	assert.False(t, SliceContains([]string{"a", "b"}, "c"))
	assert.False(t, SliceContains(nil, "c"))
}

func TestJSONStringify(t *testing.T) {
	assert.Equal(t, `{"a":1}`, JSONStringify(map[string]int{"a": 1}))
	assert.Equal(t, `null`, JSONStringify(nil))
}
