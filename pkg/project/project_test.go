package project_test

import (
	"testing"

	"malhf/pkg/project"
	"malhf/pkg/tuple"
)

func mustTuple(t *testing.T, line string, nattrs int) tuple.Tuple {
	t.Helper()
	tup, err := tuple.Parse(line, nattrs)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", line, err)
	}
	return tup
}

func TestProjectAll(t *testing.T) {
	p, err := project.New("*", 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	tup := mustTuple(t, "apple,red,sweet", 3)
	if got := p.Project(tup); got != "apple,red,sweet" {
		t.Errorf("Project(*) = %q, want unchanged tuple", got)
	}
}

func TestProjectSubsetReordered(t *testing.T) {
	p, err := project.New("3,1", 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	tup := mustTuple(t, "apple,red,sweet", 3)
	if got := p.Project(tup); got != "sweet,apple" {
		t.Errorf("Project(3,1) = %q, want %q", got, "sweet,apple")
	}
}

func TestProjectSingleAttribute(t *testing.T) {
	p, err := project.New("2", 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	tup := mustTuple(t, "apple,red,sweet", 3)
	if got := p.Project(tup); got != "red" {
		t.Errorf("Project(2) = %q, want %q", got, "red")
	}
}

func TestNewInvalidAttr(t *testing.T) {
	cases := []string{"0", "4", "abc", "1,5"}
	for _, attrstr := range cases {
		if _, err := project.New(attrstr, 3); err == nil {
			t.Errorf("New(%q) expected error, got nil", attrstr)
		}
	}
}
