package tuple_test

import (
	"testing"

	"malhf/pkg/tuple"
)

func TestParseFieldCount(t *testing.T) {
	if _, err := tuple.Parse("apple,red", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tuple.Parse("apple,red,extra", 2); err != tuple.ErrFieldCount {
		t.Fatalf("expected ErrFieldCount, got %v", err)
	}
}

func TestParseTooLarge(t *testing.T) {
	big := make([]byte, 300)
	for i := range big {
		big[i] = 'x'
	}
	if _, err := tuple.Parse(string(big), 1); err != tuple.ErrTooLarge {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestVals(t *testing.T) {
	tup, err := tuple.Parse("apple,red,3", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals := tup.Vals(3)
	want := []string{"apple", "red", "3"}
	for i, v := range want {
		if vals[i] != v {
			t.Errorf("vals[%d] = %q, want %q", i, vals[i], v)
		}
	}
}

func TestMatchWildcardAttribute(t *testing.T) {
	pt, _ := tuple.Parse("?,red", 2)
	cases := map[string]bool{
		"apple,red":    true,
		"cherry,red":   true,
		"banana,yellow": false,
	}
	for line, want := range cases {
		tup, _ := tuple.Parse(line, 2)
		if got := tuple.Match(pt, tup, 2); got != want {
			t.Errorf("Match(%q, %q) = %v, want %v", pt, tup, got, want)
		}
	}
}

func TestMatchSubstring(t *testing.T) {
	pt, _ := tuple.Parse("%an%,?", 2)
	cases := map[string]bool{
		"banana,yellow": true,
		"apple,red":     false,
		"cherry,red":    false,
	}
	for line, want := range cases {
		tup, _ := tuple.Parse(line, 2)
		if got := tuple.Match(pt, tup, 2); got != want {
			t.Errorf("Match(%q, %q) = %v, want %v", pt, tup, got, want)
		}
	}
}

func TestMatchAnchorStart(t *testing.T) {
	pt, _ := tuple.Parse("a%,?", 2)
	cases := map[string]bool{
		"apple,red":     true,
		"banana,yellow": false,
	}
	for line, want := range cases {
		tup, _ := tuple.Parse(line, 2)
		if got := tuple.Match(pt, tup, 2); got != want {
			t.Errorf("Match(%q, %q) = %v, want %v", pt, tup, got, want)
		}
	}
}

func TestMatchAnchorEnd(t *testing.T) {
	pt, _ := tuple.Parse("%e,?", 2)
	cases := map[string]bool{
		"apple,red":  true,
		"cherry,red": false,
	}
	for line, want := range cases {
		tup, _ := tuple.Parse(line, 2)
		if got := tuple.Match(pt, tup, 2); got != want {
			t.Errorf("Match(%q, %q) = %v, want %v", pt, tup, got, want)
		}
	}
}

func TestMatchAllUnknown(t *testing.T) {
	pt, _ := tuple.Parse("?,?", 2)
	tup, _ := tuple.Parse("banana,yellow", 2)
	if !tuple.Match(pt, tup, 2) {
		t.Errorf("expected all-? pattern to match everything")
	}
}

func TestMatchExact(t *testing.T) {
	pt, _ := tuple.Parse("apple,red", 2)
	tup1, _ := tuple.Parse("apple,red", 2)
	tup2, _ := tuple.Parse("apple,green", 2)
	if !tuple.Match(pt, tup1, 2) {
		t.Errorf("expected exact match")
	}
	if tuple.Match(pt, tup2, 2) {
		t.Errorf("expected exact mismatch")
	}
}
