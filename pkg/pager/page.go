package pager

// NoPage is the pagenum for when there is no page being held.
const NoPage int64 = -1

// Page caches one page's worth of bytes from a backing file and tracks the
// bookkeeping the Pager needs to know when it is safe to reuse or evict it.
//
// MA-LHF is single-threaded and synchronous (spec.md §5: no concurrent
// access), so unlike the teacher's Page this one carries no lock: pin
// counting alone is enough to implement the ownership discipline spec.md
// requires ("every Page ... must be released exactly once").
type Page struct {
	pager    *Pager // Pager that owns this page's backing file.
	pagenum  int64  // Page id; also its offset (in pages) within the file.
	pinCount int64  // Number of outstanding Get()s not yet matched by Put().
	dirty    bool   // Whether data has changed since the last flush.
	data     []byte // The page's PageSize bytes.
}

// GetPager returns the pager this page belongs to.
func (page *Page) GetPager() *Pager {
	return page.pager
}

// GetPageNum returns the page's pagenum (unique identifier within its file).
func (page *Page) GetPageNum() int64 {
	return page.pagenum
}

// IsDirty reports whether the page's data has changed and needs to be
// written to disk.
func (page *Page) IsDirty() bool {
	return page.dirty
}

// SetDirty changes the dirty status of a page.
func (page *Page) SetDirty(dirty bool) {
	page.dirty = dirty
}

// GetData returns the byte data held by the page.
func (page *Page) GetData() []byte {
	return page.data
}

// Get increments the pin count, indicating that another holder is using
// this page.
func (page *Page) Get() {
	page.pinCount++
}

// Put decrements the pin count, indicating a holder is done using this
// page. Returns the resulting pin count.
func (page *Page) Put() int64 {
	page.pinCount--
	return page.pinCount
}

// Update writes `size` bytes of data into the page at the given offset,
// marking the page dirty.
func (page *Page) Update(data []byte, offset int64, size int64) {
	page.dirty = true
	copy(page.data[offset:offset+size], data)
}
