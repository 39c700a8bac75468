package lhash_test

import (
	"testing"

	"malhf/pkg/config"
	"malhf/pkg/lhash"
	"malhf/pkg/tuple"
	"malhf/test/utils"
)

// chVecFor builds a MaxChVec-length choice vector spec that round-robins
// across the relation's nattrs attributes, bit 0, 1, 2, ... per attribute.
func chVecFor(nattrs int) string {
	counts := make([]int, nattrs)
	parts := make([]string, config.MaxChVec)
	for j := 0; j < config.MaxChVec; j++ {
		att := j % nattrs
		parts[j] = itoa(att) + ":" + itoa(counts[att])
		counts[att]++
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}

func mustCreate(t *testing.T, nattrs, npages, depth int64) *lhash.Relation {
	t.Helper()
	name := utils.TempRelationName(t)
	r, err := lhash.NewRelation(name, nattrs, npages, depth, chVecFor(int(nattrs)), lhash.JenkinsHasher, nil)
	if err != nil {
		t.Fatalf("NewRelation failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func mustParse(t *testing.T, line string, nattrs int) tuple.Tuple {
	t.Helper()
	tup, err := tuple.Parse(line, nattrs)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", line, err)
	}
	return tup
}

func collect(t *testing.T, r *lhash.Relation, pattern string) []string {
	t.Helper()
	q := mustParse(t, pattern, int(r.NAttrs()))
	sel, err := lhash.NewSelection(r, q)
	if err != nil {
		t.Fatalf("NewSelection(%q) failed: %v", pattern, err)
	}
	defer sel.Close()

	var got []string
	for {
		tup, ok, err := sel.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, string(tup))
	}
	return got
}

func containsAll(got []string, want ...string) bool {
	set := make(map[string]bool, len(got))
	for _, g := range got {
		set[g] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return len(got) == len(want)
}

// TestConcreteScenarios exercises the apple/banana/cherry walk-through:
// select-all, a partial match on a known attribute, and substring/anchor
// wildcard matches.
func TestConcreteScenarios(t *testing.T) {
	r := mustCreate(t, 2, 4, 0)

	for _, line := range []string{"apple,red", "banana,yellow", "cherry,red"} {
		if _, err := r.AddTuple(mustParse(t, line, 2)); err != nil {
			t.Fatalf("AddTuple(%q) failed: %v", line, err)
		}
	}

	if got := collect(t, r, "?,?"); !containsAll(got, "apple,red", "banana,yellow", "cherry,red") {
		t.Errorf("select ?,? = %v, want all three tuples", got)
	}

	if got := collect(t, r, "?,red"); !containsAll(got, "apple,red", "cherry,red") {
		t.Errorf("select ?,red = %v, want apple,red and cherry,red", got)
	}

	if got := collect(t, r, "%an%,?"); !containsAll(got, "banana,yellow") {
		t.Errorf("select %%an%%,? = %v, want only banana,yellow", got)
	}

	if got := collect(t, r, "a%,?"); !containsAll(got, "apple,red") {
		t.Errorf("select a%%,? = %v, want only apple,red", got)
	}

	if got := collect(t, r, "%e,?"); !containsAll(got, "apple,red") {
		t.Errorf("select %%e,? = %v, want only apple,red", got)
	}
}

// TestAddTupleCountsAndReopen verifies NTuples tracking and that a relation
// persists its header and data across a Close/OpenRelation cycle.
func TestAddTupleCountsAndReopen(t *testing.T) {
	name := utils.TempRelationName(t)
	r, err := lhash.NewRelation(name, 2, 4, 0, chVecFor(2), lhash.JenkinsHasher, nil)
	if err != nil {
		t.Fatalf("NewRelation failed: %v", err)
	}

	if _, err := r.AddTuple(mustParse(t, "apple,red", 2)); err != nil {
		t.Fatalf("AddTuple failed: %v", err)
	}
	if _, err := r.AddTuple(mustParse(t, "banana,yellow", 2)); err != nil {
		t.Fatalf("AddTuple failed: %v", err)
	}
	if r.NTuples() != 2 {
		t.Fatalf("NTuples() = %d, want 2", r.NTuples())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := lhash.OpenRelation(name, false, lhash.JenkinsHasher, nil)
	if err != nil {
		t.Fatalf("OpenRelation failed: %v", err)
	}
	defer reopened.Close()

	if reopened.NTuples() != 2 {
		t.Errorf("reopened NTuples() = %d, want 2", reopened.NTuples())
	}
	if reopened.NAttrs() != 2 {
		t.Errorf("reopened NAttrs() = %d, want 2", reopened.NAttrs())
	}
	if got := collect(t, reopened, "?,?"); !containsAll(got, "apple,red", "banana,yellow") {
		t.Errorf("select ?,? after reopen = %v", got)
	}
}

// TestSplitPreservesAllTuples inserts enough tuples to force a split (one
// bucket, single attribute, so the capacity threshold is 102 tuples) and
// checks that every inserted tuple is still reachable and that the page
// count grows.
func TestSplitPreservesAllTuples(t *testing.T) {
	r := mustCreate(t, 1, 1, 0)

	const n = 140
	inserted := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line := itoa(i)
		if _, err := r.AddTuple(mustParse(t, line, 1)); err != nil {
			t.Fatalf("AddTuple(%q) failed: %v", line, err)
		}
		inserted = append(inserted, line)
	}

	if r.NPages() <= 1 {
		t.Errorf("expected splits to have grown NPages beyond 1, got %d", r.NPages())
	}
	if r.NTuples() != int64(n) {
		t.Fatalf("NTuples() = %d, want %d", r.NTuples(), n)
	}

	got := collect(t, r, "?")
	if len(got) != n {
		t.Fatalf("select ? returned %d tuples, want %d", len(got), n)
	}
	seen := make(map[string]bool, n)
	for _, g := range got {
		seen[g] = true
	}
	for _, want := range inserted {
		if !seen[want] {
			t.Errorf("tuple %q missing after splits", want)
		}
	}
}

// TestSplitPreservesOverflowChain builds an overflow chain on bucket 0
// (long tuples, so the page fills well before the insert-count split
// threshold) and then forces a split, checking that every overflow page
// allocated before the split is still reachable from some bucket's chain
// afterward. split() must restore a drained page's ovflow link after Init
// wipes it, not leave the chain truncated.
func TestSplitPreservesOverflowChain(t *testing.T) {
	r := mustCreate(t, 1, 1, 0)

	pcap := int(config.BucketCapacity(1))
	long := func(i int) string {
		s := itoa(i)
		for len(s) < 190 {
			s = "0" + s
		}
		return s
	}

	for i := 0; i < pcap; i++ {
		if _, err := r.AddTuple(mustParse(t, long(i), 1)); err != nil {
			t.Fatalf("AddTuple failed: %v", err)
		}
	}
	if r.OvflowPages() == 0 {
		t.Fatalf("expected an overflow chain on bucket 0 before the split, got 0 overflow pages")
	}

	// This insert crosses the pcap threshold and triggers split().
	if _, err := r.AddTuple(mustParse(t, long(pcap), 1)); err != nil {
		t.Fatalf("AddTuple (triggering split) failed: %v", err)
	}
	if r.NPages() != 2 {
		t.Fatalf("NPages() = %d, want 2 after the first split", r.NPages())
	}

	buckets, err := r.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	var reachableOvflow int64
	for _, chain := range buckets {
		reachableOvflow += int64(len(chain) - 1)
	}
	if reachableOvflow != r.OvflowPages() {
		t.Errorf("reachable overflow pages = %d, want %d (total allocated): split orphaned an overflow page",
			reachableOvflow, r.OvflowPages())
	}

	got := collect(t, r, "?")
	if len(got) != pcap+1 {
		t.Fatalf("select ? returned %d tuples after split, want %d", len(got), pcap+1)
	}
}

// TestAddTupleTooLarge is a light sanity check that AddTuple returns an
// error for an oversized tuple rather than silently truncating or
// corrupting the page.
func TestAddTupleTooLarge(t *testing.T) {
	r := mustCreate(t, 1, 1, 0)
	big := make([]byte, 300)
	for i := range big {
		big[i] = 'x'
	}
	_, err := r.AddTuple(tuple.Tuple(big))
	if err == nil {
		t.Fatalf("expected an error for an oversized tuple")
	}
}
