package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIsEmptyOrAll(t *testing.T) {
	assert.True(t, IsEmptyOrAll(""))
	assert.True(t, IsEmptyOrAll("  "))
	assert.True(t, IsEmptyOrAll("all"))
	assert.True(t, IsEmptyOrAll("ALL"))
	assert.False(t, IsEmptyOrAll("Tables"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, SplitList("a.jpg| b.jpg |"))
	assert.Equal(t, []string{"x", "y"}, SplitList("x,y"))
	assert.Empty(t, SplitList(""))
}
