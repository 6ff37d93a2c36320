package http

import (
	"sort"
	"strings"
)

// Headers is a case-sensitive map. A repeated key overwrites the previous value
type Headers map[string]string

func (h Headers) Set(key, value string) {
	h[key] = value
}

// Replace sets the value and drops every other spelling of the key, so the last
// occurrence wins regardless of its case
func (h Headers) Replace(key, value string) {
	for k := range h {
		if k != key && strings.EqualFold(k, key) {
			delete(h, k)
		}
	}

	h[key] = value
}

func (h Headers) Get(key string) (value string, found bool) {
	value, found = h[key]
	return value, found
}

// Find prefers the exact key and falls back to a case-insensitive match. Used for
// the headers that drive framing and negotiation, as peers rarely agree on their case.
// Should several spellings be present, the smallest key wins
func (h Headers) Find(key string) (value string, found bool) {
	if value, found = h[key]; found {
		return value, true
	}

	var match string
	for k, v := range h {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, value, found = k, v, true
		}
	}

	return value, found
}

func (h Headers) sortedKeys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
