package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("1.0", "http://a"), Hash("1.0", "http://a"))
	assert.NotEqual(t, Hash("1.0", "http://a"), Hash("1.0", "http://b"))
	assert.NotEqual(t, Hash("ab", "c"), Hash("a", "bc"))
	assert.NotEqual(t, Hash("a"), Hash("a", ""))
	assert.NotEqual(t, Hash(), Hash(""))
	assert.Regexp(t, `^[0-9a-f]+$`, Hash("hello"))
}
