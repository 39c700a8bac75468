// Package utils provides shared test fixtures for the MA-LHF packages:
// isolated relation directories and a fixture-copying helper for tests
// that want to start from a pre-built relation.
package utils

import (
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
)

// TempRelationName returns a relation name (file path prefix, with no
// extension) rooted in a fresh directory that is removed when the test
// completes.
func TempRelationName(t *testing.T) string {
	return filepath.Join(t.TempDir(), "rel")
}

// CopyFixtureRelation copies an existing relation's .info/.data/.ovflow
// files (named by srcName, without extension) into a fresh temp
// directory, returning the new relation name. Used by tests that need to
// mutate a fixture without disturbing the original.
func CopyFixtureRelation(t *testing.T, srcName string) string {
	dstDir := t.TempDir()
	for _, ext := range []string{".info", ".data", ".ovflow"} {
		if err := copy.Copy(srcName+ext, filepath.Join(dstDir, "rel"+ext)); err != nil {
			t.Fatalf("failed to copy fixture %s: %v", srcName+ext, err)
		}
	}
	return filepath.Join(dstDir, "rel")
}
