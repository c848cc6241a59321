package utils

// StringSet is a set of column names.
type StringSet struct {
	seen map[string]struct{}
}

// NewStringSet creates a set holding the given items.
func NewStringSet(items ...string) *StringSet {
	s := &StringSet{seen: make(map[string]struct{}, len(items))}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add returns true if the item was newly added, false if already present.
func (s *StringSet) Add(item string) bool {
	if _, exists := s.seen[item]; exists {
		return false
	}
	s.seen[item] = struct{}{}
	return true
}

// Contains returns true if the item is in the set.
func (s *StringSet) Contains(item string) bool {
	_, exists := s.seen[item]
	return exists
}

// Size returns the number of items.
func (s *StringSet) Size() int {
	return len(s.seen)
}

// Intersect returns the items of ordered that are in the set, keeping their order.
func (s *StringSet) Intersect(ordered []string) []string {
	out := make([]string, 0, len(ordered))
	for _, it := range ordered {
		if s.Contains(it) {
			out = append(out, it)
		}
	}
	return out
}
