package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 30, ToInt(30))
	assert.Equal(t, 30, ToInt(float64(30)))
	assert.Equal(t, 30, ToInt(int64(30)))
	assert.Equal(t, 30, ToInt("30"))
	assert.Equal(t, 0, ToInt("abc"))
	assert.Equal(t, 4, ToInt([]byte("4")))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "dc1", ToString("dc1"))
	assert.Equal(t, "5", ToString(float64(5)))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "x", ToString([]byte("x")))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool(float64(1)))
	assert.False(t, ToBool(float64(0)))
	assert.False(t, ToBool("yes"))
	assert.False(t, ToBool(nil))
}

func TestToStringSlice(t *testing.T) {
	assert.Nil(t, ToStringSlice(nil))
	assert.Equal(t, []string{"a", "b"}, ToStringSlice([]string{"a", "b"}))
	assert.Equal(t, []string{"10.0.0.1", "53"}, ToStringSlice([]any{"10.0.0.1", nil, float64(53)}))
	assert.Equal(t, []string{"only"}, ToStringSlice("only"))
}
