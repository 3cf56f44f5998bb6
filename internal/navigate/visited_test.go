package navigate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitedSetExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVisitedSet(30*time.Second, func() time.Time { return now })

	v.Mark(1, 4)
	assert.True(t, v.Visited(1, 4))
	assert.False(t, v.Visited(1, 5))
	assert.False(t, v.Visited(2, 4))

	now = now.Add(31 * time.Second)
	assert.False(t, v.Visited(1, 4))
	assert.Zero(t, v.Len(), "expired entry removed on lookup")
}

func TestVisitedSetClear(t *testing.T) {
	v := NewVisitedSet(0, nil)
	v.Mark(1, 1)
	v.Mark(1, 2)
	v.Mark(2, 1)

	v.Clear(1)
	assert.Equal(t, 1, v.Len())
	assert.True(t, v.Visited(2, 1))

	v.ClearAll()
	assert.Zero(t, v.Len())
}
