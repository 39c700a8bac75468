package lhash

import (
	"fmt"
	"strconv"
	"strings"

	"malhf/pkg/config"
)

// ChoiceEntry is one (attribute, bit) pair contributing a single bit to the
// composite hash.
type ChoiceEntry struct {
	Att byte
	Bit byte
}

// ChoiceVector is the ordered sequence cv[0..MaxChVec) of ChoiceEntry:
// bit j of the composite hash is taken from bit cv[j].Bit of the hash of
// attribute cv[j].Att.
type ChoiceVector [config.MaxChVec]ChoiceEntry

// ParseChoiceVector parses a spec of the form "a0:b0,a1:b1,..." with
// exactly config.MaxChVec entries, each ai < nattrs and bi < 32.
func ParseChoiceVector(spec string, nattrs int) (ChoiceVector, error) {
	var cv ChoiceVector
	parts := strings.Split(spec, ",")
	if len(parts) != config.MaxChVec {
		return cv, fmt.Errorf("lhash: choice vector must have %d entries, got %d", config.MaxChVec, len(parts))
	}
	for i, part := range parts {
		ab := strings.SplitN(part, ":", 2)
		if len(ab) != 2 {
			return cv, fmt.Errorf("lhash: malformed choice vector entry %q", part)
		}
		att, err := strconv.Atoi(ab[0])
		if err != nil || att < 0 || att >= nattrs {
			return cv, fmt.Errorf("lhash: invalid attribute index in choice vector entry %q", part)
		}
		bit, err := strconv.Atoi(ab[1])
		if err != nil || bit < 0 || bit >= 32 {
			return cv, fmt.Errorf("lhash: invalid bit index in choice vector entry %q", part)
		}
		cv[i] = ChoiceEntry{Att: byte(att), Bit: byte(bit)}
	}
	return cv, nil
}

// String renders the choice vector back into "a0:b0,a1:b1,..." form, the
// same form ParseChoiceVector accepts.
func (cv ChoiceVector) String() string {
	parts := make([]string, config.MaxChVec)
	for i, e := range cv {
		parts[i] = fmt.Sprintf("%d:%d", e.Att, e.Bit)
	}
	return strings.Join(parts, ",")
}
