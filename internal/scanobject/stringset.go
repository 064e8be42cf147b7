package scanobject

// StringSet is an insertion-ordered set of strings. It backs the flags,
// object_type, and content_type fields of Object, all of which spec.md
// requires to be idempotent (I6: flags only grow) while preserving the
// order findings were added in, for stable serialization.
type StringSet struct {
	order []string
	seen  map[string]struct{}
}

// NewStringSet builds a StringSet pre-populated with the given values, in
// order, deduplicated on first occurrence.
func NewStringSet(values ...string) *StringSet {
	s := &StringSet{seen: make(map[string]struct{}, len(values))}
	s.AddAll(values...)
	return s
}

// Add appends v if it is not already present. Idempotent.
func (s *StringSet) Add(v string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// AddAll adds each value in order.
func (s *StringSet) AddAll(values ...string) {
	for _, v := range values {
		s.Add(v)
	}
}

// Contains reports whether v has been added.
func (s *StringSet) Contains(v string) bool {
	if s.seen == nil {
		return false
	}
	_, ok := s.seen[v]
	return ok
}

// Slice returns the set's contents in insertion order. The returned slice
// is owned by the caller; mutating it does not affect the set.
func (s *StringSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of distinct elements.
func (s *StringSet) Len() int {
	return len(s.order)
}
