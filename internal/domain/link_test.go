package domain

import "testing"

func TestLinkSet(t *testing.T) {
	a := LinkKey{SourcePort: 88, DestPort: 84}
	b := LinkKey{SourcePort: 89, DestPort: 86}
	c := LinkKey{SourcePort: 41, DestPort: 84}

	t.Run("add remove contains", func(t *testing.T) {
		s := NewLinkSet(a)
		if !s.Contains(a) {
			t.Error("expected set to contain added link")
		}
		s.Add(b)
		s.Remove(a)
		if s.Contains(a) {
			t.Error("expected link removed")
		}
		if !s.Contains(b) {
			t.Error("expected remaining link untouched")
		}
	})

	t.Run("duplicate add keeps a single entry", func(t *testing.T) {
		s := NewLinkSet(a, a)
		if len(s) != 1 {
			t.Errorf("expected 1 entry, got %d", len(s))
		}
	})

	t.Run("equal", func(t *testing.T) {
		if !NewLinkSet(a, b).Equal(NewLinkSet(b, a)) {
			t.Error("expected order-independent equality")
		}
		if NewLinkSet(a).Equal(NewLinkSet(a, b)) {
			t.Error("expected sets of different size to differ")
		}
		if NewLinkSet(a, b).Equal(NewLinkSet(a, c)) {
			t.Error("expected sets with different members to differ")
		}
	})

	t.Run("minus returns sorted difference", func(t *testing.T) {
		desired := NewLinkSet(a, b, c)
		owned := NewLinkSet(b)

		missing := desired.Minus(owned)
		if len(missing) != 2 {
			t.Fatalf("expected 2 missing links, got %d", len(missing))
		}
		// sorted by source port: 41 before 88
		if missing[0] != c || missing[1] != a {
			t.Errorf("expected sorted order [%v %v], got %v", c, a, missing)
		}

		if extra := owned.Minus(desired); len(extra) != 0 {
			t.Errorf("expected no extra links, got %v", extra)
		}
	})

	t.Run("sorted lists all links deterministically", func(t *testing.T) {
		s := NewLinkSet(b, a, c)
		sorted := s.Sorted()
		if len(sorted) != 3 {
			t.Fatalf("expected 3 links, got %d", len(sorted))
		}
		if sorted[0] != c || sorted[1] != a || sorted[2] != b {
			t.Errorf("unexpected order: %v", sorted)
		}
	})
}
