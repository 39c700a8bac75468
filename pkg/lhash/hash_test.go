package lhash_test

import (
	"testing"

	"malhf/pkg/bitword"
	"malhf/pkg/lhash"
)

func TestHasherByName(t *testing.T) {
	cases := []string{"", "jenkins", "xxhash", "murmur3"}
	for _, name := range cases {
		if _, err := lhash.HasherByName(name); err != nil {
			t.Errorf("HasherByName(%q) returned error: %v", name, err)
		}
	}
	if _, err := lhash.HasherByName("nonsense"); err == nil {
		t.Errorf("expected error for unknown hasher name")
	}
}

func TestJenkinsHasherDeterministic(t *testing.T) {
	h1 := lhash.JenkinsHasher.Hash([]byte("apple"))
	h2 := lhash.JenkinsHasher.Hash([]byte("apple"))
	if h1 != h2 {
		t.Errorf("expected deterministic hash, got %d and %d", h1, h2)
	}
	if h1 == lhash.JenkinsHasher.Hash([]byte("banana")) {
		t.Errorf("expected different values to hash differently (with overwhelming probability)")
	}
}

func TestCompositeHashDecomposable(t *testing.T) {
	cv, err := lhash.ParseChoiceVector(sampleChVecSpec(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vals1 := []string{"apple", "red"}
	vals2 := []string{"apple", "green"}

	h1 := lhash.CompositeHash(lhash.JenkinsHasher, vals1, cv)
	h2 := lhash.CompositeHash(lhash.JenkinsHasher, vals2, cv)

	// Bits contributed only by attribute 0 (even j) must agree, since
	// attribute 0's value ("apple") is the same in both.
	for j := 0; j < len(cv); j += 2 {
		if bitword.IsSet(h1, j) != bitword.IsSet(h2, j) {
			t.Errorf("bit %d (attribute 0) differs despite equal attribute-0 value", j)
		}
	}
}
