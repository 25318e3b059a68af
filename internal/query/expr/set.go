package expr

// Set is a set of expressions keyed by canonical representation.
type Set struct {
	members map[string]Expression
}

// NewSet creates a set holding the given expressions.
func NewSet(exprs ...Expression) *Set {
	s := &Set{members: make(map[string]Expression, len(exprs))}
	for _, e := range exprs {
		s.Insert(e)
	}
	return s
}

// Insert adds an expression to the set.
func (s *Set) Insert(e Expression) {
	s.members[e.String()] = e
}

// Contains reports membership.
func (s *Set) Contains(e Expression) bool {
	_, ok := s.members[e.String()]
	return ok
}

// Size returns the number of members.
func (s *Set) Size() int {
	return len(s.members)
}

// Slice returns the members in unspecified order.
func (s *Set) Slice() []Expression {
	result := make([]Expression, 0, len(s.members))
	for _, e := range s.members {
		result = append(result, e)
	}
	return result
}
