package iteratable

import "sort"

// Set is a destructive, order-preserving set of arbitrary comparable
// values, built for algorithms that iterate a working set while mutating
// it — predict/complete worklists, state-closure construction, and
// similar fixpoint computations. "Destructive" means the iteration
// cursor is part of the Set's own state rather than a separate iterator
// value: IterateOnce/Next/Item walk the receiver directly. Difference and
// Subset hand back a fresh Set; Union adds into its receiver and returns
// it.
type Set struct {
	items  []interface{}
	index  map[interface{}]int
	cursor int
}

// NewSet returns a Set containing the given items, duplicates discarded.
func NewSet(items ...interface{}) *Set {
	s := &Set{index: make(map[interface{}]int, len(items))}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item if not already present, returning whether it was new.
func (s *Set) Add(item interface{}) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Remove deletes item if present, returning whether it was found.
func (s *Set) Remove(item interface{}) bool {
	i, ok := s.index[item]
	if !ok {
		return false
	}
	delete(s.index, item)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	if s.cursor > i {
		s.cursor--
	}
	return true
}

// Contains reports whether item is a member.
func (s *Set) Contains(item interface{}) bool {
	_, ok := s.index[item]
	return ok
}

// Size returns the number of members.
func (s *Set) Size() int {
	return len(s.items)
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool {
	return len(s.items) == 0
}

// Values returns the members in insertion order. The slice is owned by
// the caller; mutating the Set afterward does not retroactively change it.
func (s *Set) Values() []interface{} {
	out := make([]interface{}, len(s.items))
	copy(out, s.items)
	return out
}

// Copy returns an independent Set with the same members.
func (s *Set) Copy() *Set {
	return NewSet(s.items...)
}

// Union adds every member of other into s, returning s for chaining.
func (s *Set) Union(other *Set) *Set {
	for _, it := range other.items {
		s.Add(it)
	}
	return s
}

// Difference returns a fresh Set of s's members that are not in other.
func (s *Set) Difference(other *Set) *Set {
	out := NewSet()
	for _, it := range s.items {
		if !other.Contains(it) {
			out.Add(it)
		}
	}
	return out
}

// Subset returns a fresh Set of s's members for which pred holds.
func (s *Set) Subset(pred func(interface{}) bool) *Set {
	out := NewSet()
	for _, it := range s.items {
		if pred(it) {
			out.Add(it)
		}
	}
	return out
}

// Each calls f once per member, in insertion order.
func (s *Set) Each(f func(interface{})) {
	for _, it := range s.items {
		f(it)
	}
}

// FirstMatch returns the first member satisfying pred, if any.
func (s *Set) FirstMatch(pred func(interface{}) bool) (interface{}, bool) {
	for _, it := range s.items {
		if pred(it) {
			return it, true
		}
	}
	return nil, false
}

// Equals reports whether s and other contain exactly the same members,
// irrespective of order.
func (s *Set) Equals(other *Set) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for _, it := range s.items {
		if !other.Contains(it) {
			return false
		}
	}
	return true
}

// Sort reorders members in place using less.
func (s *Set) Sort(less func(a, b interface{}) bool) {
	sort.Slice(s.items, func(i, j int) bool { return less(s.items[i], s.items[j]) })
	for i, it := range s.items {
		s.index[it] = i
	}
}

// IterateOnce resets the iteration cursor to the start of the set.
func (s *Set) IterateOnce() {
	s.cursor = -1
}

// Next advances the iteration cursor, returning false once exhausted.
func (s *Set) Next() bool {
	s.cursor++
	return s.cursor < len(s.items)
}

// Item returns the member at the current iteration cursor. Valid only
// after a Next call that returned true.
func (s *Set) Item() interface{} {
	return s.items[s.cursor]
}
