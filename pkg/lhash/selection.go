package lhash

import (
	"malhf/pkg/bitword"
	"malhf/pkg/pager"
	"malhf/pkg/tuple"

	"github.com/bits-and-blooms/bitset"
)

// Selection is a resumable partial-match scan over a Relation: a cursor
// over candidate bucket ids, and within each bucket, over its primary +
// overflow page chain and the tuple offsets within the current page.
//
// Grounded on original_source/select.c's SelectionRep / startSelection /
// getNextTuple / closeSelection.
type Selection struct {
	rel *Relation

	qvals       []string // the query's per-attribute pattern strings
	knownAttrs  *bitset.BitSet // which attributes are exactly specified (not "?" or containing "%")
	qHash       bitword.Bits   // query's composite hash, unknown bits zeroed
	known       bitword.Bits   // mask: 1 where the composite hash bit is determined by a known attribute

	curBid  int64
	maxBid  int64
	curPage *pager.Page
	isOvf   bool
	offset  int64 // byte offset of the next unexamined tuple in curPage
}

// knownAttr reports whether pattern value s fully determines an
// attribute's value: neither the wildcard "?" nor containing a '%'.
func knownAttr(s string) bool {
	if s == "?" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			return false
		}
	}
	return true
}

// NewSelection builds a Selection for partial-match query q (one pattern
// value per attribute, comma-separated, "?" or containing "%" for
// attributes left unconstrained) against r.
func NewSelection(r *Relation, q tuple.Tuple) (*Selection, error) {
	nattrs := int(r.nattrs)
	qvals := q.Vals(nattrs)

	knownAttrs := bitset.New(uint(nattrs))
	var unknown bitword.Bits
	for i, v := range qvals {
		if knownAttr(v) {
			knownAttrs.Set(uint(i))
		} else {
			for j := range r.cv {
				if int(r.cv[j].Att) == i {
					unknown = bitword.Set(unknown, j)
				}
			}
		}
	}
	known := ^unknown

	qHash := CompositeHash(r.hasher, qvals, r.cv) & known

	s := &Selection{
		rel:        r,
		qvals:      qvals,
		knownAttrs: knownAttrs,
		qHash:      qHash,
		known:      known,
	}

	if r.depth == 0 {
		s.curBid = 0
		s.maxBid = 0
	} else {
		s.curBid = int64(bitword.Low(qHash, int(r.depth)))
		s.maxBid = int64(bitword.Low(qHash|^known, int(r.depth+1)))
		if s.maxBid >= r.npages {
			s.maxBid = r.npages - 1
		}
		// qHash's low bits only pin the bucket assuming the split pointer
		// hasn't moved past it; validate curBid itself against the same
		// candidate predicate moveToNextPage uses for every later bucket,
		// advancing past any bucket the known attributes actually rule out.
		for s.curBid <= s.maxBid && !s.candidateBucket(s.curBid) {
			s.curBid++
		}
	}

	if s.curBid > s.maxBid {
		// No bucket in range is consistent with the known attributes; the
		// scan starts (and stays) empty.
		return s, nil
	}

	page, err := r.data.GetPage(s.curBid)
	if err != nil {
		return nil, err
	}
	s.curPage = page
	s.isOvf = false
	s.offset = 0
	return s, nil
}

// candidateBucket reports whether bucket bid's composite-hash bits are
// consistent with the query's known attributes, given the relation's
// current depth and split pointer.
func (s *Selection) candidateBucket(bid int64) bool {
	r := s.rel
	masked := (s.known & bitword.Bits(bid)) ^ s.qHash
	return bitword.Low(masked, int(r.depth+1)) == 0 ||
		(bid >= r.sp && bitword.Low(masked, int(r.depth)) == 0)
}

// KnownAttrs returns the set of attribute indexes the query fully
// specified (neither "?" nor containing "%"), for reporting purposes.
func (s *Selection) KnownAttrs() *bitset.BitSet {
	return s.knownAttrs
}

// moveToNextPage advances the cursor to the next page that could contain a
// match: the current bucket's next overflow page if any, otherwise the
// next candidate bucket's primary page. Returns false once the scan is
// exhausted.
func (s *Selection) moveToNextPage() (bool, error) {
	if s.curPage == nil {
		return false, nil
	}
	r := s.rel
	nextOvf := Ovflow(s.curPage.GetData())

	if nextOvf != pager.NoPage {
		if s.isOvf {
			r.ovflow.PutPage(s.curPage)
		} else {
			r.data.PutPage(s.curPage)
		}
		page, err := r.ovflow.GetPage(nextOvf)
		if err != nil {
			return false, err
		}
		s.curPage = page
		s.isOvf = true
		s.offset = 0
		return true, nil
	}

	for bid := s.curBid + 1; bid <= s.maxBid; bid++ {
		if s.candidateBucket(bid) {
			if s.isOvf {
				r.ovflow.PutPage(s.curPage)
			} else {
				r.data.PutPage(s.curPage)
			}
			page, err := r.data.GetPage(bid)
			if err != nil {
				return false, err
			}
			s.curBid = bid
			s.curPage = page
			s.isOvf = false
			s.offset = 0
			return true, nil
		}
	}
	return false, nil
}

// nextMatchTup scans forward from the cursor's current offset in curPage
// for a tuple matching the query, returning it and advancing the offset
// past it. Returns ok=false if curPage has no further match.
func (s *Selection) nextMatchTup() (tuple.Tuple, bool) {
	if s.curPage == nil {
		return "", false
	}
	data := s.curPage.GetData()
	if NTuples(s.curPage.GetData()) == 0 {
		return "", false
	}
	free := Free(s.curPage.GetData())
	end := int64(pageHeaderLen) + free
	segStart := int64(pageHeaderLen) + s.offset

	for segStart < end {
		i := segStart
		for i < end && data[i] != 0 {
			i++
		}
		if i >= end {
			break
		}
		t := tuple.Tuple(data[segStart:i])
		next := i + 1
		s.offset = next - int64(pageHeaderLen)
		if tuple.ValsMatch(s.qvals, t, len(s.qvals)) {
			return t, true
		}
		segStart = next
	}
	return "", false
}

// Next returns the next tuple matching the query, or ok=false once the
// scan is exhausted.
func (s *Selection) Next() (tuple.Tuple, bool, error) {
	for {
		if t, ok := s.nextMatchTup(); ok {
			return t, true, nil
		}
		moved, err := s.moveToNextPage()
		if err != nil {
			return "", false, err
		}
		if !moved {
			return "", false, nil
		}
	}
}

// Close releases the page currently pinned by the scan.
func (s *Selection) Close() {
	if s.curPage == nil {
		return
	}
	if s.isOvf {
		s.rel.ovflow.PutPage(s.curPage)
	} else {
		s.rel.data.PutPage(s.curPage)
	}
	s.curPage = nil
}
