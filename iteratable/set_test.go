package iteratable

import "testing"

func TestAddRejectsDuplicates(t *testing.T) {
	s := NewSet()
	if !s.Add(1) {
		t.Errorf("expected first Add of a fresh value to report new")
	}
	if s.Add(1) {
		t.Errorf("expected second Add of the same value to report not-new")
	}
	if s.Size() != 1 {
		t.Errorf("expected size 1 after adding the same value twice, got %d", s.Size())
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	s := NewSet("a", "b", "c")
	if !s.Remove("b") {
		t.Fatalf("expected to remove a present member")
	}
	if s.Remove("b") {
		t.Errorf("expected removing an absent member to report false")
	}
	if s.Contains("b") {
		t.Errorf("expected \"b\" to be gone")
	}
	if got := s.Values(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected order-preserving removal, got %v", got)
	}
}

func TestValuesPreservesInsertionOrder(t *testing.T) {
	s := NewSet()
	for _, v := range []string{"x", "y", "z"} {
		s.Add(v)
	}
	got := s.Values()
	want := []string{"x", "y", "z"}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: expected %q, got %q", i, v, got[i])
		}
	}
}

func TestUnionAddsMissingMembersOnly(t *testing.T) {
	a := NewSet(1, 2)
	b := NewSet(2, 3)
	a.Union(b)
	if a.Size() != 3 {
		t.Errorf("expected union of {1,2} and {2,3} to have 3 members, got %d", a.Size())
	}
	for _, v := range []int{1, 2, 3} {
		if !a.Contains(v) {
			t.Errorf("expected union to contain %d", v)
		}
	}
}

func TestDifference(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(2)
	d := a.Difference(b)
	if d.Size() != 2 || !d.Contains(1) || !d.Contains(3) || d.Contains(2) {
		t.Errorf("expected difference {1,2,3} - {2} = {1,3}, got %v", d.Values())
	}
}

func TestSubset(t *testing.T) {
	s := NewSet(1, 2, 3, 4)
	evens := s.Subset(func(v interface{}) bool { return v.(int)%2 == 0 })
	if evens.Size() != 2 || !evens.Contains(2) || !evens.Contains(4) {
		t.Errorf("expected evens subset {2,4}, got %v", evens.Values())
	}
}

func TestEquals(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(3, 2, 1)
	if !a.Equals(b) {
		t.Errorf("expected sets with the same members in different order to be equal")
	}
	c := NewSet(1, 2)
	if a.Equals(c) {
		t.Errorf("expected sets of different size to be unequal")
	}
}

func TestIterateOnceWalksEveryMemberOnce(t *testing.T) {
	s := NewSet("a", "b", "c")
	s.IterateOnce()
	var seen []interface{}
	for s.Next() {
		seen = append(seen, s.Item())
	}
	if len(seen) != 3 {
		t.Errorf("expected to visit 3 members, visited %d", len(seen))
	}
}

func TestFirstMatch(t *testing.T) {
	s := NewSet(1, 2, 3)
	v, ok := s.FirstMatch(func(x interface{}) bool { return x.(int) > 1 })
	if !ok || v.(int) != 2 {
		t.Errorf("expected first match > 1 to be 2, got %v (ok=%v)", v, ok)
	}
	if _, ok := s.FirstMatch(func(x interface{}) bool { return x.(int) > 10 }); ok {
		t.Errorf("expected no match for > 10")
	}
}
