package lhash

import (
	"fmt"

	"malhf/pkg/bitword"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// AttrHasher hashes a single attribute value to a 32-bit word. The
// composite hash extracts individual bits from this word, so two hashers
// are never compatible with each other's stored data: a relation is
// created with one AttrHasher and must be reopened with the same one.
type AttrHasher interface {
	Hash(data []byte) uint32
}

// jenkinsHasher implements Bob Jenkins' one-at-a-time hash, the algorithm
// the composite hash was originally specified against. It is hand-rolled
// rather than pulled from a library because it IS the selectable default
// algorithm, not ambient infrastructure.
type jenkinsHasher struct{}

// JenkinsHasher is the default AttrHasher: a byte-wise Jenkins one-at-a-time
// hash, deterministic across platforms.
var JenkinsHasher AttrHasher = jenkinsHasher{}

func (jenkinsHasher) Hash(data []byte) uint32 {
	var h uint32
	for _, b := range data {
		h += uint32(b)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// xxHasher adapts cespare/xxhash as an alternate, faster AttrHasher.
type xxHasher struct{}

// XxHasher is an alternate AttrHasher backed by xxHash.
var XxHasher AttrHasher = xxHasher{}

func (xxHasher) Hash(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

// murmurHasher adapts spaolacci/murmur3 as an alternate AttrHasher.
type murmurHasher struct{}

// Murmur3Hasher is an alternate AttrHasher backed by MurmurHash3.
var Murmur3Hasher AttrHasher = murmurHasher{}

func (murmurHasher) Hash(data []byte) uint32 {
	return uint32(murmur3.Sum64([]byte(data)))
}

// HasherByName resolves a command-line hasher selection to an AttrHasher.
// "jenkins" is the default algorithm the composite hash was specified
// against; "xxhash" and "murmur3" are faster alternatives with no format
// compatibility with each other or with jenkins.
func HasherByName(name string) (AttrHasher, error) {
	switch name {
	case "", "jenkins":
		return JenkinsHasher, nil
	case "xxhash":
		return XxHasher, nil
	case "murmur3":
		return Murmur3Hasher, nil
	default:
		return nil, fmt.Errorf("lhash: unknown hasher %q", name)
	}
}

// CompositeHash computes the MaxChVec-bit composite hash of a tuple's
// attribute values under choice vector cv, using hasher for the per-
// attribute hashes.
//
// Each attribute actually referenced by some cv[j] is hashed once; bit j of
// the result is bit cv[j].Bit of that attribute's hash.
func CompositeHash(hasher AttrHasher, vals []string, cv ChoiceVector) bitword.Bits {
	var hash bitword.Bits
	attrHashes := make(map[byte]uint32)
	for j := range cv {
		att := cv[j].Att
		attrHash, ok := attrHashes[att]
		if !ok {
			attrHash = hasher.Hash([]byte(vals[att]))
			attrHashes[att] = attrHash
		}
		if attrHash&(1<<uint(cv[j].Bit)) != 0 {
			hash = bitword.Set(hash, j)
		}
	}
	return hash
}
