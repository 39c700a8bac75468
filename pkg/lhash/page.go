package lhash

import (
	"encoding/binary"
	"errors"

	"malhf/pkg/pager"
	"malhf/pkg/tuple"
)

// Bucket page layout: a fixed header followed by a packed run of
// '\0'-terminated tuple strings. Mirrors original_source/page.h's
// PageRep{free, ovflow, ntuples, data[]}.
//
// The functions below operate on a raw Pagesize-length byte buffer rather
// than directly on a *pager.Page, so the same code serves both a page
// pinned through a Pager and the scratch "staging" pages split() builds up
// in memory before flushing them to a bucket (original_source/reln.c's
// newPage()-allocated `move`/`stay` buffers have no backing pager either).
const (
	freeOffset    = 0  // int32: bytes of data[] currently used
	ovflowOffset  = 4  // int64: overflow page id, pager.NoPage if none
	ntuplesOffset = 12 // int32: number of tuples stored on this page
	pageHeaderLen = 20
)

// ErrPageFull is returned by AddTuple when a tuple does not fit in the
// page's remaining data space; the caller must chain an overflow page.
var ErrPageFull = errors.New("lhash: page is full")

// dataCap is the number of bytes of tuple data a bucket page can hold.
func dataCap() int64 {
	return pager.Pagesize - pageHeaderLen
}

// NewStagingPage allocates an empty, unbacked bucket page of exactly
// Pagesize bytes.
func NewStagingPage() []byte {
	buf := make([]byte, pager.Pagesize)
	SetOvflow(buf, pager.NoPage)
	return buf
}

// Init zero-initializes a page buffer as an empty bucket page: no tuples,
// no overflow.
func Init(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	SetOvflow(buf, pager.NoPage)
}

// Free returns the number of data bytes currently in use in buf.
func Free(buf []byte) int64 {
	return int64(int32(binary.LittleEndian.Uint32(buf[freeOffset : freeOffset+4])))
}

func setFree(buf []byte, v int64) {
	binary.LittleEndian.PutUint32(buf[freeOffset:freeOffset+4], uint32(int32(v)))
}

// NTuples returns the number of tuples stored in buf.
func NTuples(buf []byte) int64 {
	return int64(int32(binary.LittleEndian.Uint32(buf[ntuplesOffset : ntuplesOffset+4])))
}

func setNTuples(buf []byte, v int64) {
	binary.LittleEndian.PutUint32(buf[ntuplesOffset:ntuplesOffset+4], uint32(int32(v)))
}

// Ovflow returns the id of buf's overflow page, or pager.NoPage.
func Ovflow(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf[ovflowOffset : ovflowOffset+8]))
}

// SetOvflow sets buf's overflow page id.
func SetOvflow(buf []byte, id int64) {
	binary.LittleEndian.PutUint64(buf[ovflowOffset:ovflowOffset+8], uint64(id))
}

// FreeSpace returns the number of unused tuple-data bytes remaining in buf.
func FreeSpace(buf []byte) int64 {
	return dataCap() - Free(buf)
}

// AddTuple appends t (with a terminating '\0') to buf's data area,
// returning ErrPageFull if it does not fit.
func AddTuple(buf []byte, t tuple.Tuple) error {
	free := Free(buf)
	need := int64(t.Len()) + 1
	if free+need > dataCap() {
		return ErrPageFull
	}
	start := pageHeaderLen + free
	copy(buf[start:start+int64(t.Len())], []byte(t))
	buf[start+int64(t.Len())] = 0
	setFree(buf, free+need)
	setNTuples(buf, NTuples(buf)+1)
	return nil
}

// Tuples returns every tuple stored in buf, in on-page order.
func Tuples(buf []byte) []tuple.Tuple {
	n := NTuples(buf)
	if n == 0 {
		return nil
	}
	tuples := make([]tuple.Tuple, 0, n)
	free := Free(buf)
	start := int64(pageHeaderLen)
	end := start + free
	segStart := start
	for i := start; i < end; i++ {
		if buf[i] == 0 {
			tuples = append(tuples, tuple.Tuple(buf[segStart:i]))
			segStart = i + 1
		}
	}
	return tuples
}
