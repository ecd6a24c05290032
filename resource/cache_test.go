package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_NamesStayOrdered(t *testing.T) {
	c := newCache[int]("test")
	defer c.reset()

	for i, n := range []string{"zeta", "alpha", "mu", "beta"} {
		assert.False(t, c.set(n, i))
	}
	assert.True(t, c.set("mu", 9))
	assert.Equal(t, []string{"alpha", "beta", "mu", "zeta"}, c.names())

	assert.True(t, c.erase("beta"))
	assert.False(t, c.erase("beta"))
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, c.names())
	assert.Equal(t, 3, c.len())

	v, ok := c.get("mu")
	assert.True(t, ok)
	assert.Equal(t, 9, v)

	c.reset()
	assert.Empty(t, c.names())
	assert.Zero(t, c.len())
}
