package sim

import (
	"reflect"
	"testing"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	if r.Len() != 3 || r.Cap() != 3 {
		t.Fatalf("len/cap = %d/%d, want 3/3", r.Len(), r.Cap())
	}
	if got := r.Oldest(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Fatalf("oldest = %v", got)
	}
	if got := r.Newest(); !reflect.DeepEqual(got, []int{5, 4, 3}) {
		t.Fatalf("newest = %v", got)
	}
}

func TestRingPartial(t *testing.T) {
	r := NewRing[string](4)
	r.Push("a")
	r.Push("b")
	if got := r.Newest(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("newest = %v", got)
	}
	if NewRing[int](0).Cap() != 1 {
		t.Fatalf("zero capacity should clamp to 1")
	}
}

func TestRingCloneIsIndependent(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	cp := r.Clone()
	cp.Push(2)
	cp.Push(3)
	if r.Len() != 1 || r.Oldest()[0] != 1 {
		t.Fatalf("clone mutated original: %v", r.Oldest())
	}
	if got := cp.Oldest(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("clone = %v", got)
	}
}
