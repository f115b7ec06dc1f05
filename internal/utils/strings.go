package utils

import (
	"sort"
	"strings"
)

/*
 * SortedSet returns the distinct values of items, sorted lexicographically.
 * A nil or empty input returns an empty (non nil) slice.
 */
func SortedSet(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	sort.Strings(result)
	return result
}

// SortedKeys returns the keys of a map sorted lexicographically
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasBlank returns true if one of the items is empty once trimmed
func HasBlank(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return true
		}
	}
	return false
}
