package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeDup(t *testing.T) {
	d := newDeDup()
	assert.True(t, d.add(10), "passed, first time")
	assert.False(t, d.add(10), "failed, dup")
	assert.True(t, d.add(12), "passed, different course")
	assert.False(t, d.since(10).IsZero())
	d.remove(10)
	assert.True(t, d.since(10).IsZero())
	assert.True(t, d.add(10), "passed, removed before")
	assert.False(t, d.add(12), "failed, dup")
	d.remove(99)
}
