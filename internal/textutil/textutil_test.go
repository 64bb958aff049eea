package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Len(t, Hash("Fm::FileOperation", "Error"), 64)
	assert.Equal(t, Hash("a", "b"), Hash("a", "b"))
	assert.NotEqual(t, Hash("ab", "c"), Hash("a", "bc"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "שגיאה", Truncate("שגיאה", 5))
	assert.Equal(t, "שגי...", Truncate("שגיאה", 3))
	assert.Equal(t, "", Truncate("", 3))
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, `a\nb`, SingleLine("a\nb"))
}
