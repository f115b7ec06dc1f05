package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrings(t *testing.T) {
	t.Run("SortedSet", func(t *testing.T) {
		assert.Equal(t, []string{"alice", "bob"}, SortedSet([]string{"bob", "alice", "bob"}))
		assert.Equal(t, []string{}, SortedSet(nil))
		assert.Equal(t, []string{"Zed", "api", "web"}, SortedSet([]string{"web", "api", "Zed"}))
	})
	t.Run("SortedKeys", func(t *testing.T) {
		assert.Equal(t, []string{"api", "infra", "web"}, SortedKeys(map[string]int{"web": 1, "api": 2, "infra": 3}))
		assert.Equal(t, []string{}, SortedKeys(map[string]bool{}))
	})
	t.Run("HasBlank", func(t *testing.T) {
		assert.False(t, HasBlank([]string{"alice"}))
		assert.True(t, HasBlank([]string{"alice", "  "}))
		assert.False(t, HasBlank(nil))
	})
}
