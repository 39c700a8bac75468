// Package project implements attribute-list projection of a matched
// tuple: either pass it through unchanged ("*") or extract a reordered
// subset of its attributes.
//
// Grounded on original_source/project.c.
package project

import (
	"errors"
	"strconv"
	"strings"

	"malhf/pkg/tuple"
)

// ErrInvalidAttr is returned when a projection list names an attribute
// index outside [1, nattrs].
var ErrInvalidAttr = errors.New("project: invalid attribute index")

// Projection extracts a fixed list of 1-based attribute indexes from a
// tuple, in the order given, or the special list "*" meaning all
// attributes unchanged.
type Projection struct {
	nattrs    int
	attrs     []int // 0-based attribute indexes, in projection order; nil means all
}

// New parses a projection list of the form "1,3,4" (1-based attribute
// indexes) or "*" against a relation with nattrs attributes.
func New(attrstr string, nattrs int) (*Projection, error) {
	if attrstr == "*" {
		return &Projection{nattrs: nattrs, attrs: nil}, nil
	}
	parts := strings.Split(attrstr, ",")
	attrs := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > nattrs {
			return nil, ErrInvalidAttr
		}
		attrs[i] = n - 1
	}
	return &Projection{nattrs: nattrs, attrs: attrs}, nil
}

// Project returns the projected form of t: the full tuple if this is an
// all-attributes projection, or its selected attribute values rejoined
// with commas in projection order.
func (p *Projection) Project(t tuple.Tuple) string {
	if p.attrs == nil {
		return string(t)
	}
	vals := t.Vals(p.nattrs)
	out := make([]string, len(p.attrs))
	for i, idx := range p.attrs {
		out[i] = vals[idx]
	}
	return strings.Join(out, ",")
}
