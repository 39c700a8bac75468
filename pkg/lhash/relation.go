// Package lhash implements the multi-attribute linear-hashed file: a
// persistent, single-relation store addressed by a composite hash over a
// chosen subset of attribute bits, supporting partial-match selection.
//
// Grounded on original_source/reln.c (file lifecycle, insert, split) and on
// the teacher's pkg/hash package for the page/pager-backed Go shape.
package lhash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"malhf/pkg/bitword"
	"malhf/pkg/config"
	"malhf/pkg/pager"
	"malhf/pkg/tuple"

	"go.uber.org/zap"
)

// infoHeaderLen is the size, in bytes, of the fixed portion of the .info
// file: nattrs, depth, sp, npages, ntups, each a little-endian uint32.
const infoHeaderLen = 4 * 5

// ErrMalformedInfo is returned when a relation's .info file cannot be
// parsed as a valid header + choice vector.
var ErrMalformedInfo = errors.New("lhash: info file is malformed")

// ErrRelationFull is returned by AddTuple when a relation has already
// split every addressable bucket (2^config.MaxChVec of them) and cannot
// grow further.
var ErrRelationFull = errors.New("lhash: relation has reached its maximum bucket count")

// maxBucketID is the ceiling on addressable buckets implied by
// config.MaxChVec: after 2^MaxChVec splits the relation must reject
// further growth.
func maxBucketID() int64 {
	return int64(math.Pow(2, float64(config.MaxChVec)))
}

// Relation is an open multi-attribute linear-hashed file: its three
// backing files (.info, .data, .ovflow) and the in-memory header state
// that AddTuple and split mutate.
type Relation struct {
	nattrs int64
	depth  int64
	sp     int64
	npages int64
	ntups  int64
	cv     ChoiceVector

	hasher   AttrHasher
	writable bool

	infoPath string
	info     *os.File
	data     *pager.Pager
	ovflow   *pager.Pager

	log *zap.SugaredLogger
}

// NewRelation creates a relation's three files, writes npages zeroed
// primary pages, and persists the header. hasher selects the AttrHasher
// the relation's composite hashes will use; it must be supplied again,
// unchanged, to every later OpenRelation of the same files.
func NewRelation(name string, nattrs, npages, depth int64, cvSpec string, hasher AttrHasher, log *zap.SugaredLogger) (*Relation, error) {
	cv, err := ParseChoiceVector(cvSpec, int(nattrs))
	if err != nil {
		return nil, err
	}

	info, err := os.Create(name + ".info")
	if err != nil {
		return nil, fmt.Errorf("lhash: creating info file: %w", err)
	}

	dataPager, err := pager.New(name + ".data")
	if err != nil {
		info.Close()
		return nil, fmt.Errorf("lhash: creating data file: %w", err)
	}
	ovflowPager, err := pager.New(name + ".ovflow")
	if err != nil {
		info.Close()
		return nil, fmt.Errorf("lhash: creating ovflow file: %w", err)
	}

	r := &Relation{
		nattrs:   nattrs,
		depth:    depth,
		sp:       0,
		npages:   npages,
		ntups:    0,
		cv:       cv,
		hasher:   hasher,
		writable: true,
		infoPath: name + ".info",
		info:     info,
		data:     dataPager,
		ovflow:   ovflowPager,
		log:      log,
	}

	for i := int64(0); i < npages; i++ {
		page, err := dataPager.GetNewPage()
		if err != nil {
			return nil, err
		}
		Init(page.GetData())
		page.SetDirty(true)
		dataPager.PutPage(page)
	}

	if err := r.writeHeader(); err != nil {
		return nil, err
	}
	if log != nil {
		log.Infow("created relation", "name", name, "nattrs", nattrs, "npages", npages, "depth", depth)
	}
	return r, nil
}

// OpenRelation opens an existing relation's three files and reads its
// header. hasher must match the AttrHasher the relation was created (or
// last reopened) with.
func OpenRelation(name string, writable bool, hasher AttrHasher, log *zap.SugaredLogger) (*Relation, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	info, err := os.OpenFile(name+".info", flag, 0666)
	if err != nil {
		return nil, fmt.Errorf("lhash: opening info file: %w", err)
	}

	dataPager, err := pager.New(name + ".data")
	if err != nil {
		info.Close()
		return nil, fmt.Errorf("lhash: opening data file: %w", err)
	}
	ovflowPager, err := pager.New(name + ".ovflow")
	if err != nil {
		info.Close()
		return nil, fmt.Errorf("lhash: opening ovflow file: %w", err)
	}

	r := &Relation{
		hasher:   hasher,
		writable: writable,
		infoPath: name + ".info",
		info:     info,
		data:     dataPager,
		ovflow:   ovflowPager,
		log:      log,
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Relation) readHeader() error {
	buf := make([]byte, infoHeaderLen)
	if _, err := io.ReadFull(r.info, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInfo, err)
	}
	r.nattrs = int64(binary.LittleEndian.Uint32(buf[0:4]))
	r.depth = int64(binary.LittleEndian.Uint32(buf[4:8]))
	r.sp = int64(binary.LittleEndian.Uint32(buf[8:12]))
	r.npages = int64(binary.LittleEndian.Uint32(buf[12:16]))
	r.ntups = int64(binary.LittleEndian.Uint32(buf[16:20]))

	cvBuf := make([]byte, 2*config.MaxChVec)
	if _, err := io.ReadFull(r.info, cvBuf); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInfo, err)
	}
	for i := 0; i < config.MaxChVec; i++ {
		r.cv[i] = ChoiceEntry{Att: cvBuf[2*i], Bit: cvBuf[2*i+1]}
	}
	return nil
}

func (r *Relation) writeHeader() error {
	buf := make([]byte, infoHeaderLen+2*config.MaxChVec)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.nattrs))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.depth))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.sp))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.npages))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.ntups))
	for i, e := range r.cv {
		buf[infoHeaderLen+2*i] = e.Att
		buf[infoHeaderLen+2*i+1] = e.Bit
	}
	if _, err := r.info.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("lhash: writing info file: %w", err)
	}
	return nil
}

// Close flushes and closes the relation's three files. If the relation was
// opened writable, the header is rewritten first.
func (r *Relation) Close() error {
	if r.writable {
		if err := r.writeHeader(); err != nil {
			return err
		}
	}
	if err := r.data.Close(); err != nil {
		return err
	}
	if err := r.ovflow.Close(); err != nil {
		return err
	}
	return r.info.Close()
}

// NAttrs returns the relation's attribute count.
func (r *Relation) NAttrs() int64 { return r.nattrs }

// Depth returns the relation's current linear-hashing depth.
func (r *Relation) Depth() int64 { return r.depth }

// SplitPointer returns the relation's current split pointer.
func (r *Relation) SplitPointer() int64 { return r.sp }

// NPages returns the number of primary data pages.
func (r *Relation) NPages() int64 { return r.npages }

// NTuples returns the total number of tuples stored.
func (r *Relation) NTuples() int64 { return r.ntups }

// OvflowPages returns the total number of pages ever allocated in the
// relation's overflow file, whether or not they are still reachable from a
// bucket chain.
func (r *Relation) OvflowPages() int64 { return r.ovflow.GetNumPages() }

// ChoiceVec returns the relation's choice vector.
func (r *Relation) ChoiceVec() ChoiceVector { return r.cv }

// Hash computes the composite hash of tuple t under this relation's
// choice vector and AttrHasher.
func (r *Relation) Hash(t tuple.Tuple) bitword.Bits {
	vals := t.Vals(int(r.nattrs))
	return CompositeHash(r.hasher, vals, r.cv)
}

// bucketOf returns the primary page id composite hash h addresses,
// given the relation's current depth and split pointer.
func (r *Relation) bucketOf(h bitword.Bits) int64 {
	if r.depth == 0 {
		return 0
	}
	p := int64(bitword.Low(h, int(r.depth)))
	if p < r.sp {
		p = int64(bitword.Low(h, int(r.depth+1)))
	}
	return p
}

// AddTuple inserts t, splitting the bucket at the split pointer first if
// the insert threshold has been reached. Returns the primary bucket id the
// tuple hashes to.
func (r *Relation) AddTuple(t tuple.Tuple) (int64, error) {
	if t.Len()+1 > config.MaxTupleLen {
		return pager.NoPage, tuple.ErrTooLarge
	}

	pcap := config.BucketCapacity(r.nattrs)
	if r.ntups > 0 && r.ntups%pcap == 0 {
		if r.npages >= maxBucketID() {
			return pager.NoPage, ErrRelationFull
		}
		if err := r.split(); err != nil {
			return pager.NoPage, fmt.Errorf("lhash: split failed: %w", err)
		}
		if r.sp < int64(math.Pow(2, float64(r.depth)))-1 {
			r.sp++
		} else {
			r.sp = 0
			r.depth++
		}
	}

	h := r.Hash(t)
	bid := r.bucketOf(h)

	if err := r.insertAt(bid, t); err != nil {
		return pager.NoPage, err
	}
	r.ntups++
	return bid, nil
}

// insertAt inserts t into bucket bid's primary page, chaining a new
// overflow page or walking the existing overflow chain as needed.
func (r *Relation) insertAt(bid int64, t tuple.Tuple) error {
	page, err := r.data.GetPage(bid)
	if err != nil {
		return err
	}
	if err := AddTuple(page.GetData(), t); err == nil {
		page.SetDirty(true)
		r.data.PutPage(page)
		return nil
	} else if err != ErrPageFull {
		r.data.PutPage(page)
		return err
	}

	ovf := Ovflow(page.GetData())
	if ovf == pager.NoPage {
		newPage, err := r.ovflow.GetNewPage()
		if err != nil {
			r.data.PutPage(page)
			return err
		}
		Init(newPage.GetData())
		if err := AddTuple(newPage.GetData(), t); err != nil {
			r.ovflow.PutPage(newPage)
			r.data.PutPage(page)
			return fmt.Errorf("lhash: tuple too large for an empty page: %w", err)
		}
		newPage.SetDirty(true)
		r.ovflow.PutPage(newPage)

		SetOvflow(page.GetData(), newPage.GetPageNum())
		page.SetDirty(true)
		r.data.PutPage(page)
		return nil
	}
	r.data.PutPage(page)

	// Walk the overflow chain until a page has room, or append one at
	// the end.
	prevID := pager.NoPage
	curID := ovf
	for curID != pager.NoPage {
		cur, err := r.ovflow.GetPage(curID)
		if err != nil {
			return err
		}
		if err := AddTuple(cur.GetData(), t); err == nil {
			cur.SetDirty(true)
			r.ovflow.PutPage(cur)
			return nil
		} else if err != ErrPageFull {
			r.ovflow.PutPage(cur)
			return err
		}
		next := Ovflow(cur.GetData())
		r.ovflow.PutPage(cur)
		prevID = curID
		curID = next
	}

	newPage, err := r.ovflow.GetNewPage()
	if err != nil {
		return err
	}
	Init(newPage.GetData())
	if err := AddTuple(newPage.GetData(), t); err != nil {
		r.ovflow.PutPage(newPage)
		return fmt.Errorf("lhash: tuple too large for an empty page: %w", err)
	}
	newPage.SetDirty(true)
	r.ovflow.PutPage(newPage)

	prev, err := r.ovflow.GetPage(prevID)
	if err != nil {
		return err
	}
	SetOvflow(prev.GetData(), newPage.GetPageNum())
	prev.SetDirty(true)
	r.ovflow.PutPage(prev)
	return nil
}

// split performs one linear-hash split: a new primary page is appended,
// and every tuple in the bucket at the split pointer is rehashed into
// either that bucket (unchanged) or the new one, based on bit `depth` of
// its composite hash.
//
// Grounded on original_source/reln.c's lh_split: pages along the split
// bucket's chain are read in order, drained into in-memory "stay"/"move"
// staging buffers, zeroed in place, and written back; staging buffers are
// flushed to their destination bucket whenever they fill.
func (r *Relation) split() error {
	newBid, err := r.data.GetNewPage()
	if err != nil {
		return err
	}
	Init(newBid.GetData())
	newBid.SetDirty(true)
	newBidNum := newBid.GetPageNum()
	r.data.PutPage(newBid)
	r.npages++

	stay := NewStagingPage()
	move := NewStagingPage()

	curID := r.sp
	isOvf := false
	for {
		var page *pager.Page
		var err error
		if !isOvf {
			page, err = r.data.GetPage(curID)
		} else {
			page, err = r.ovflow.GetPage(curID)
		}
		if err != nil {
			return err
		}

		for _, t := range Tuples(page.GetData()) {
			h := r.Hash(t)
			if !bitword.IsSet(h, int(r.depth)) {
				if err := AddTuple(stay, t); err == ErrPageFull {
					if err := r.flushToBucket(r.sp, stay); err != nil {
						return err
					}
					stay = NewStagingPage()
					AddTuple(stay, t)
				}
			} else {
				if err := AddTuple(move, t); err == ErrPageFull {
					if err := r.flushToBucket(newBidNum, move); err != nil {
						return err
					}
					move = NewStagingPage()
					AddTuple(move, t)
				}
			}
		}

		ovf := Ovflow(page.GetData())
		Init(page.GetData())
		// Init wipes the ovflow link along with everything else; restore it
		// so the rest of the chain stays reachable for flushToBucket.
		SetOvflow(page.GetData(), ovf)
		page.SetDirty(true)
		if !isOvf {
			r.data.PutPage(page)
		} else {
			r.ovflow.PutPage(page)
		}

		if ovf == pager.NoPage {
			break
		}
		curID = ovf
		isOvf = true
	}

	if NTuples(stay) > 0 {
		if err := r.flushToBucket(r.sp, stay); err != nil {
			return err
		}
	}
	if NTuples(move) > 0 {
		if err := r.flushToBucket(newBidNum, move); err != nil {
			return err
		}
	}
	return nil
}

// flushToBucket writes staging buffer buf, as a whole page, into the first
// empty page found in bucket bid's chain, preserving that page's existing
// overflow link. If no empty page is found, buf becomes a new overflow
// page appended to the end of the chain.
func (r *Relation) flushToBucket(bid int64, buf []byte) error {
	page, err := r.data.GetPage(bid)
	if err != nil {
		return err
	}
	curID := bid
	isOvf := false

	for {
		if NTuples(page.GetData()) == 0 {
			ovf := Ovflow(page.GetData())
			SetOvflow(buf, ovf)
			copy(page.GetData(), buf)
			page.SetDirty(true)
			if !isOvf {
				r.data.PutPage(page)
			} else {
				r.ovflow.PutPage(page)
			}
			return nil
		}

		ovf := Ovflow(page.GetData())
		if ovf == pager.NoPage {
			if !isOvf {
				r.data.PutPage(page)
			} else {
				r.ovflow.PutPage(page)
			}
			newPage, err := r.ovflow.GetNewPage()
			if err != nil {
				return err
			}
			copy(newPage.GetData(), buf)
			newPage.SetDirty(true)
			newID := newPage.GetPageNum()
			r.ovflow.PutPage(newPage)

			var last *pager.Page
			if !isOvf {
				last, err = r.data.GetPage(curID)
			} else {
				last, err = r.ovflow.GetPage(curID)
			}
			if err != nil {
				return err
			}
			SetOvflow(last.GetData(), newID)
			last.SetDirty(true)
			if !isOvf {
				r.data.PutPage(last)
			} else {
				r.ovflow.PutPage(last)
			}
			return nil
		}

		if !isOvf {
			r.data.PutPage(page)
		} else {
			r.ovflow.PutPage(page)
		}
		page, err = r.ovflow.GetPage(ovf)
		if err != nil {
			return err
		}
		curID = ovf
		isOvf = true
	}
}

// BucketChain describes one page in a bucket's primary/overflow chain,
// for Stats reporting.
type BucketChain struct {
	PageID    int64
	NTuples   int64
	FreeSpace int64
	Ovflow    int64
}

// Stats returns, for every primary bucket, the chain of (pageID, ntuples,
// free_bytes, ovflow) summaries from its primary page through its
// overflow chain.
func (r *Relation) Stats() ([][]BucketChain, error) {
	buckets := make([][]BucketChain, r.npages)
	for bid := int64(0); bid < r.npages; bid++ {
		page, err := r.data.GetPage(bid)
		if err != nil {
			return nil, err
		}
		chain := []BucketChain{{
			PageID:    bid,
			NTuples:   NTuples(page.GetData()),
			FreeSpace: FreeSpace(page.GetData()),
			Ovflow:    Ovflow(page.GetData()),
		}}
		ovf := Ovflow(page.GetData())
		r.data.PutPage(page)

		for ovf != pager.NoPage {
			ovPage, err := r.ovflow.GetPage(ovf)
			if err != nil {
				return nil, err
			}
			id := ovf
			chain = append(chain, BucketChain{
				PageID:    id,
				NTuples:   NTuples(ovPage.GetData()),
				FreeSpace: FreeSpace(ovPage.GetData()),
				Ovflow:    Ovflow(ovPage.GetData()),
			})
			ovf = Ovflow(ovPage.GetData())
			r.ovflow.PutPage(ovPage)
		}
		buckets[bid] = chain
	}
	return buckets, nil
}
