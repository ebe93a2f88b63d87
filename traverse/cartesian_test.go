package traverse

import (
	"reflect"
	"testing"
)

func TestCartesianProductSingleLane(t *testing.T) {
	cp := NewCartesianProduct[string]()
	cp.Push([]string{"a", "b"})
	var got [][]string
	for {
		got = append(got, append([]string{}, cp.AsSlice()...))
		if !cp.Advance() {
			break
		}
	}
	want := [][]string{{"a"}, {"b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCartesianProductMultipleLanes(t *testing.T) {
	cp := NewCartesianProduct[int]()
	cp.Push([]int{1, 2})
	cp.Push([]int{10, 20, 30})
	var got [][]int
	for {
		got = append(got, append([]int{}, cp.AsSlice()...))
		if !cp.Advance() {
			break
		}
	}
	if len(got) != 6 {
		t.Fatalf("expected 2*3=6 combinations, got %d", len(got))
	}
	want := [][]int{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
