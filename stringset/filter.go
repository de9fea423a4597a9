package stringset

import (
	"strings"
	"sync"
)

// StringFilter remembers strings case-insensitively.
type StringFilter struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewStringFilter() *StringFilter {
	return &StringFilter{seen: make(map[string]struct{})}
}

// Duplicate records s and reports whether it had been recorded before.
func (f *StringFilter) Duplicate(s string) bool {
	key := strings.ToLower(s)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[key]; ok {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

// Seen reports whether s was recorded, without recording it.
func (f *StringFilter) Seen(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[strings.ToLower(s)]
	return ok
}

func (f *StringFilter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
