package normalize

// orderedSet is a string set that preserves first-insertion order. Domain
// inference depends on this: the resulting domains array must list buckets
// in the order they first matched, which plain map iteration does not
// guarantee.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// Add inserts s if it is not already present.
func (s *orderedSet) Add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// Values returns the members in insertion order.
func (s *orderedSet) Values() []string {
	return s.items
}

// Len returns the number of members.
func (s *orderedSet) Len() int {
	return len(s.items)
}
