package accessory

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	a := New("id-1", Info{Name: "Purifier"})

	if err := r.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Get("id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("Get returned a different accessory")
	}

	if !r.Remove("id-1") {
		t.Error("Remove should report the accessory was present")
	}
	if _, err := r.Get("id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove = %v, want ErrNotFound", err)
	}
	if r.Remove("id-1") {
		t.Error("second Remove should report absent")
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(New("id-1", Info{})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(New("id-1", Info{})); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate Add = %v, want ErrDuplicateID", err)
	}
}

func TestRegistry_ListSortedByID(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Add(New(id, Info{})); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	var got []string
	for _, a := range r.List() {
		got = append(got, a.ID())
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List order = %v, want %v", got, want)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			_ = r.Add(New(id, Info{}))
			_, _ = r.Get(id)
			_ = r.List()
			_ = r.Count()
		}(i)
	}
	wg.Wait()

	if r.Count() != 10 {
		t.Errorf("count = %d, want 10", r.Count())
	}
}
