// Package tuple implements the on-disk tuple representation: comma-separated
// attribute values in a single '\0'-terminated string, and the matching
// logic a partial-match query uses against them.
//
// Grounded on original_source/tuple.c.
package tuple

import (
	"errors"
	"strings"

	"malhf/pkg/config"
)

// ErrFieldCount is returned when a parsed line's field count does not match
// the relation's attribute count.
var ErrFieldCount = errors.New("tuple: field count does not match relation's attribute count")

// ErrTooLarge is returned when a tuple's serialized length (including the
// terminating '\0') exceeds config.MaxTupleLen.
var ErrTooLarge = errors.New("tuple: exceeds maximum tuple length")

// Tuple is a single relation row: attribute values joined by commas. It
// carries no terminating '\0' in memory; that byte is added only when a
// Tuple is serialized to a page.
type Tuple string

// Parse splits line into a Tuple, verifying it has exactly nattrs
// comma-separated fields and fits within config.MaxTupleLen once
// serialized.
func Parse(line string, nattrs int) (Tuple, error) {
	if len(line)+1 > config.MaxTupleLen {
		return "", ErrTooLarge
	}
	if strings.Count(line, ",")+1 != nattrs {
		return "", ErrFieldCount
	}
	return Tuple(line), nil
}

// Vals splits t into its nattrs attribute values, in order.
func (t Tuple) Vals(nattrs int) []string {
	vals := make([]string, nattrs)
	rest := string(t)
	for i := 0; i < nattrs-1; i++ {
		idx := strings.IndexByte(rest, ',')
		vals[i] = rest[:idx]
		rest = rest[idx+1:]
	}
	vals[nattrs-1] = rest
	return vals
}

// Len returns the number of bytes in the tuple's textual representation,
// not including the terminating '\0' it is stored with on a page.
func (t Tuple) Len() int {
	return len(t)
}

// strMatch reports whether pattern p matches string s, where p may contain
// '%' wildcards (matching any substring, including empty). Consecutive
// runs of '%' collapse to a single unanchored gap. A non-'%' leading or
// trailing segment of p is an anchor: it must occur at the exact start (or
// end) of s, not merely appear somewhere within it.
func strMatch(p, s string) bool {
	if !strings.Contains(p, "%") {
		return p == s
	}

	// Split p into its known (non-'%') segments, in order, recording
	// whether the first/last segment is anchored to the start/end of s.
	anchoredStart := len(p) > 0 && p[0] != '%'
	anchoredEnd := len(p) > 0 && p[len(p)-1] != '%'

	var segments []string
	for _, part := range strings.Split(p, "%") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) == 0 {
		// Pattern is made entirely of '%': matches anything.
		return true
	}

	pos := 0
	for i, seg := range segments {
		isFirst := i == 0
		isLast := i == len(segments)-1

		if isFirst && anchoredStart {
			if !strings.HasPrefix(s[pos:], seg) {
				return false
			}
			pos += len(seg)
			continue
		}
		if isLast && anchoredEnd {
			if !strings.HasSuffix(s[pos:], seg) {
				return false
			}
			pos = len(s)
			continue
		}

		idx := strings.Index(s[pos:], seg)
		if idx == -1 {
			return false
		}
		pos += idx + len(seg)
	}
	return true
}

// ValsMatch reports whether the per-attribute pattern values ptv match the
// values of t. ptv[i] == "?" matches any value for attribute i; otherwise
// ptv[i] is matched against t's i'th value via strMatch.
func ValsMatch(ptv []string, t Tuple, nattrs int) bool {
	vals := t.Vals(nattrs)
	for i, pat := range ptv {
		if pat == "?" {
			continue
		}
		if !strMatch(pat, vals[i]) {
			return false
		}
	}
	return true
}

// Match reports whether pattern tuple pt (whose values may be "?" or
// contain '%' wildcards) matches tuple t.
func Match(pt, t Tuple, nattrs int) bool {
	return ValsMatch(pt.Vals(nattrs), t, nattrs)
}
