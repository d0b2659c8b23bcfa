package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameSplits(t *testing.T) {
	t.Run("camel case joins capitalized runs", func(t *testing.T) {
		splits := NameSplits("JohnSmith")
		require.NotEmpty(t, splits)
		assert.Equal(t, "John Smith", splits[0])
		assert.Contains(t, splits, "JohnS mith")
		assert.Contains(t, splits, "Johns Mith")
	})

	t.Run("upper case run together", func(t *testing.T) {
		splits := NameSplits("SMITHJOHN")
		assert.Contains(t, splits, "SMITH JOHN")
		assert.Contains(t, splits, "Smith John")
		assert.Len(t, splits, 6)
	})

	t.Run("never splits between lower case letters", func(t *testing.T) {
		assert.Empty(t, NameSplits("johnsmith"))
	})

	t.Run("short strings", func(t *testing.T) {
		assert.Empty(t, NameSplits("Ann"))
		assert.Empty(t, NameSplits("johnsmit"))
	})

	t.Run("segment minimums", func(t *testing.T) {
		for _, s := range NameSplits("ABCDEFGHIJ") {
			assert.GreaterOrEqual(t, len(s), len("ABC DEFGHIJ")-1)
		}
	})
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Smith", capitalize("SMITH"))
	assert.Equal(t, "John", capitalize("john"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Élan", capitalize("élan"))
}
