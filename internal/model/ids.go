package model

import "sort"

// IDSet is a set of row identifiers.
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Intersects reports whether the two sets share at least one element.
func (s IDSet) Intersects(other IDSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// IntersectionSize counts the shared elements.
func (s IDSet) IntersectionSize(other IDSet) int {
	n := 0
	for id := range s {
		if other.Has(id) {
			n++
		}
	}
	return n
}

// Sorted returns the elements in ascending order.
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
