package lhash_test

import (
	"strings"
	"testing"

	"malhf/pkg/config"
	"malhf/pkg/lhash"
)

func sampleChVecSpec() string {
	// attribute 0 contributes bits 0,2,4,...; attribute 1 contributes bits 1,3,5,...
	parts := make([]string, config.MaxChVec)
	for j := 0; j < config.MaxChVec; j++ {
		att := j % 2
		bit := j / 2
		parts[j] = itoa(att) + ":" + itoa(bit)
	}
	return strings.Join(parts, ",")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestParseChoiceVectorRoundTrip(t *testing.T) {
	spec := sampleChVecSpec()
	cv, err := lhash.ParseChoiceVector(spec, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cv.String() != spec {
		t.Errorf("round trip mismatch:\n got  %q\n want %q", cv.String(), spec)
	}
}

func TestParseChoiceVectorWrongLength(t *testing.T) {
	if _, err := lhash.ParseChoiceVector("0:0,1:1", 2); err == nil {
		t.Errorf("expected error for too-few entries")
	}
}

func TestParseChoiceVectorInvalidAttr(t *testing.T) {
	spec := sampleChVecSpec()
	bad := strings.Replace(spec, "0:0", "5:0", 1)
	if _, err := lhash.ParseChoiceVector(bad, 2); err == nil {
		t.Errorf("expected error for out-of-range attribute index")
	}
}
