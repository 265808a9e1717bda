// Package heapfile implements the two-level directory-chain heap file
// navigation: a single HeapFileIterator holds exactly one directory-page
// pin and at most one tuple-page pin at a time, and walks the directory
// chain to find space for new tuples or to scan every tuple page in order.
package heapfile

import (
	"fmt"
	"sort"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/storage"
)

// TID identifies one record within a heap file by the tuple page that
// holds it and its slot index on that page.
type TID struct {
	PageNumber uint64
	Slot       int
}

// HeapFileIterator is a single navigational cursor over one heap file. It
// holds at most one directory-page pin and at most one tuple-page pin at
// any time; every method that moves the cursor unpins whatever it's
// replacing before pinning the next page.
type HeapFileIterator struct {
	fm        *storage.FileManager
	bp        *bufferpool.Manager
	filename  string
	blockSize int

	dirPageId storage.PageId
	dirFrame  *bufferpool.Frame

	tuplePageId    storage.PageId
	tupleFrame     *bufferpool.Frame
	pageEntryIndex int // index into the current directory's entries; -1 if unset
}

// NewHeapFileIterator opens a cursor on filename, pinning directory page 0.
func NewHeapFileIterator(fm *storage.FileManager, bp *bufferpool.Manager, filename string) (*HeapFileIterator, error) {
	it := &HeapFileIterator{
		fm:             fm,
		bp:             bp,
		filename:       filename,
		blockSize:      fm.BlockSize(),
		dirPageId:      storage.Empty,
		tuplePageId:    storage.Empty,
		pageEntryIndex: -1,
	}
	if err := it.FindFirstDir(); err != nil {
		return nil, err
	}
	return it, nil
}

// Close unpins whatever pages the cursor currently holds.
func (it *HeapFileIterator) Close() {
	if it.tupleFrame != nil {
		it.bp.Unpin(it.tuplePageId, false)
		it.tupleFrame = nil
		it.tuplePageId = storage.Empty
	}
	if it.dirFrame != nil {
		it.bp.Unpin(it.dirPageId, false)
		it.dirFrame = nil
		it.dirPageId = storage.Empty
	}
}

// DirPage returns the directory page currently pinned.
func (it *HeapFileIterator) DirPage() storage.DirectoryPage {
	return storage.DirectoryPage{Buf: it.dirFrame.Buf}
}

// TuplePage returns the tuple page currently pinned, if any.
func (it *HeapFileIterator) TuplePage() (storage.TuplePage, bool) {
	if it.tupleFrame == nil {
		return storage.TuplePage{}, false
	}
	return storage.TuplePage{Buf: it.tupleFrame.Buf}, true
}

func (it *HeapFileIterator) CurrentPageId() storage.PageId   { return it.tuplePageId }
func (it *HeapFileIterator) CurrentDirPageId() storage.PageId { return it.dirPageId }
func (it *HeapFileIterator) PageEntryIndex() int              { return it.pageEntryIndex }

// FindFirstDir unpins any pinned tuple page and (re-)pins directory page 0,
// resetting the entry cursor. Every heap file has at least one directory
// page once created, so it fails only when page 0 cannot be pinned.
func (it *HeapFileIterator) FindFirstDir() error {
	if it.tupleFrame != nil {
		it.bp.Unpin(it.tuplePageId, false)
		it.tupleFrame = nil
		it.tuplePageId = storage.Empty
	}
	if it.dirFrame == nil || it.dirPageId.PageNumber != 0 {
		if it.dirFrame != nil {
			it.bp.Unpin(it.dirPageId, false)
		}
		pid := storage.PageId{Filename: it.filename, PageNumber: 0}
		f, err := it.bp.Pin(pid)
		if err != nil {
			return fmt.Errorf("heapfile: find first dir: %w", err)
		}
		it.dirFrame = f
		it.dirPageId = pid
	}
	it.pageEntryIndex = -1
	return nil
}

// NextDir advances the cursor to the next directory page in the chain,
// unpinning any pinned tuple page. Returns false once the chain's
// terminator is reached.
func (it *HeapFileIterator) NextDir() (bool, error) {
	next := it.DirPage().NextPage()
	if next == storage.NoPageNumber {
		return false, nil
	}
	if it.tupleFrame != nil {
		it.bp.Unpin(it.tuplePageId, false)
		it.tupleFrame = nil
		it.tuplePageId = storage.Empty
	}
	it.bp.Unpin(it.dirPageId, false)
	pid := storage.PageId{Filename: it.filename, PageNumber: next}
	f, err := it.bp.Pin(pid)
	if err != nil {
		return false, fmt.Errorf("heapfile: next dir: %w", err)
	}
	it.dirFrame = f
	it.dirPageId = pid
	it.pageEntryIndex = -1
	return true, nil
}

// NextPageInDir advances the cursor to the next tuple page entry within
// the current directory page. Returns false once every entry in this
// directory has been visited.
func (it *HeapFileIterator) NextPageInDir() (bool, error) {
	dp := it.DirPage()
	next := it.pageEntryIndex + 1
	if uint64(next) >= dp.EntryCount() {
		return false, nil
	}
	if it.tupleFrame != nil {
		it.bp.Unpin(it.tuplePageId, false)
		it.tupleFrame = nil
	}
	entry := dp.Entry(next)
	pid := storage.PageId{Filename: it.filename, PageNumber: entry.PageNumber}
	f, err := it.bp.Pin(pid)
	if err != nil {
		return false, fmt.Errorf("heapfile: next page in dir: %w", err)
	}
	it.tupleFrame = f
	it.tuplePageId = pid
	it.pageEntryIndex = next
	return true, nil
}

// CanDirStorePageEntry reports whether the current directory page has room
// for one more PageEntry.
func (it *HeapFileIterator) CanDirStorePageEntry() bool {
	dp := it.DirPage()
	return dp.EntryCount() < uint64(dp.Capacity())
}

// AdjustCurrentFreeSpace adds delta (positive or negative) to the free
// space advisory of the directory entry the cursor currently sits on, and
// marks the directory page dirty. Callers hold the directory pin already;
// this never pins or unpins anything.
func (it *HeapFileIterator) AdjustCurrentFreeSpace(delta int64) {
	dp := it.DirPage()
	e := dp.Entry(it.pageEntryIndex)
	fs := int64(e.FreeSpace) + delta
	if fs < 0 {
		fs = 0
	}
	e.FreeSpace = uint32(fs)
	dp.SetEntry(it.pageEntryIndex, e)
	it.bp.MarkDirty(it.dirPageId)
}

// extendHeapFile doubles the directory chain: if there are currently k
// directory pages, k new directory pages are appended, each fully
// populated with tuple-page entries, so the chain
// holds 2k directories afterward. It walks the chain independently of the
// calling iterator's own cursor, using its own pins, so the caller's
// position is left untouched.
func (it *HeapFileIterator) extendHeapFile() error {
	pid := storage.PageId{Filename: it.filename, PageNumber: 0}
	frame, err := it.bp.Pin(pid)
	if err != nil {
		return fmt.Errorf("heapfile: extend: pin dir 0: %w", err)
	}
	dp := storage.DirectoryPage{Buf: frame.Buf}
	k := uint64(1)
	for dp.NextPage() != storage.NoPageNumber {
		next := dp.NextPage()
		it.bp.Unpin(pid, false)
		pid = storage.PageId{Filename: it.filename, PageNumber: next}
		frame, err = it.bp.Pin(pid)
		if err != nil {
			return fmt.Errorf("heapfile: extend: walk chain: %w", err)
		}
		dp = storage.DirectoryPage{Buf: frame.Buf}
		k++
	}

	capacity := dp.Capacity()
	tableName := dp.TableName()
	prevPid, prevDp := pid, dp

	for newIdx := k + 1; newIdx <= 2*k; newIdx++ {
		dirPageNum, err := it.fm.Append(it.filename, 1)
		if err != nil {
			return fmt.Errorf("heapfile: extend: append directory: %w", err)
		}
		newDirPid := storage.PageId{Filename: it.filename, PageNumber: dirPageNum}
		newFrame, err := it.bp.Pin(newDirPid)
		if err != nil {
			return fmt.Errorf("heapfile: extend: pin new directory: %w", err)
		}
		newDp := storage.InitDirectoryPage(newFrame.Buf, newIdx, tableName)
		newDp.SetPrevPage(prevPid.PageNumber)

		for e := 0; e < capacity; e++ {
			tuplePageNum, err := it.fm.Append(it.filename, 1)
			if err != nil {
				return fmt.Errorf("heapfile: extend: append tuple page: %w", err)
			}
			tuplePid := storage.PageId{Filename: it.filename, PageNumber: tuplePageNum}
			tupleFrame, err := it.bp.Pin(tuplePid)
			if err != nil {
				return fmt.Errorf("heapfile: extend: pin tuple page: %w", err)
			}
			storage.InitTuplePage(tupleFrame.Buf)
			free := uint32(it.blockSize) - uint32(storage.TuplePageHeaderSize())
			newDp.SetEntry(e, storage.PageEntry{PageNumber: tuplePageNum, FreeSpace: free})
			it.bp.Unpin(tuplePid, true)
		}
		newDp.SetEntryCount(uint64(capacity))

		// Link the previous directory to this one and write it back
		// before unpinning, so a dirty flush never leaves a stale
		// next_page behind.
		prevDp.SetNextPage(newDirPid.PageNumber)
		it.bp.MarkDirty(prevPid)
		it.bp.Unpin(prevPid, true)

		prevPid, prevDp = newDirPid, newDp
	}
	it.bp.MarkDirty(prevPid)
	it.bp.Unpin(prevPid, true)
	return nil
}

// TraverseFromStartTilFindSpace positions the cursor on the first tuple
// page, anywhere in the chain, whose advisory free space is at least
// requiredSize. If the entire chain is exhausted, it extends the heap
// file and restarts the search from the beginning.
func (it *HeapFileIterator) TraverseFromStartTilFindSpace(requiredSize uint32) error {
	if err := it.FindFirstDir(); err != nil {
		return err
	}
	for {
		dp := it.DirPage()
		n := int(dp.EntryCount())
		for i := 0; i < n; i++ {
			e := dp.Entry(i)
			if e.FreeSpace >= requiredSize {
				if it.tupleFrame != nil {
					it.bp.Unpin(it.tuplePageId, false)
					it.tupleFrame = nil
				}
				pid := storage.PageId{Filename: it.filename, PageNumber: e.PageNumber}
				f, err := it.bp.Pin(pid)
				if err != nil {
					return fmt.Errorf("heapfile: traverse: pin tuple page: %w", err)
				}
				it.tupleFrame = f
				it.tuplePageId = pid
				it.pageEntryIndex = i
				return nil
			}
		}
		ok, err := it.NextDir()
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err := it.extendHeapFile(); err != nil {
			return fmt.Errorf("heapfile: traverse: extend: %w", err)
		}
		if err := it.FindFirstDir(); err != nil {
			return err
		}
	}
}

// InsertTuple finds room for data (a pre-encoded record) anywhere in the
// heap file, writes it, and returns its TID. The owning directory entry's
// free-space advisory always drops by the record size, and drops by the
// fixed slot width too only when a brand-new slot is allocated — reusing a
// freed slot costs nothing extra.
func (it *HeapFileIterator) InsertTuple(data []byte) (TID, error) {
	required := uint32(len(data)) + storage.SlotSize
	if err := it.TraverseFromStartTilFindSpace(required); err != nil {
		return TID{}, err
	}
	tp, _ := it.TuplePage()

	slotIdx := -1
	for i := 0; i < int(tp.SlotCount()); i++ {
		if !tp.Slot(i).IsOccupied() {
			slotIdx = i
			break
		}
	}
	newSlot := slotIdx == -1
	if newSlot {
		slotIdx = tp.AppendSlot()
	}

	off := tp.LastOccupiedOffset() - uint32(len(data))
	tp.WriteRecord(off, data)
	tp.SetSlot(slotIdx, storage.NewSlot().WithOccupied(true).WithOffset(off))
	it.bp.MarkDirty(it.tuplePageId)

	delta := -int64(len(data))
	if newSlot {
		delta -= storage.SlotSize
	}
	it.AdjustCurrentFreeSpace(delta)

	return TID{PageNumber: it.tuplePageId.PageNumber, Slot: slotIdx}, nil
}

// InsertTuples inserts every record in data, smallest first — a heuristic
// that tends to leave larger contiguous gaps for later, bigger records —
// and returns their TIDs in the same order as the input slice.
func (it *HeapFileIterator) InsertTuples(data [][]byte) ([]TID, error) {
	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(data[order[a]]) < len(data[order[b]])
	})
	tids := make([]TID, len(data))
	for _, i := range order {
		tid, err := it.InsertTuple(data[i])
		if err != nil {
			return nil, err
		}
		tids[i] = tid
	}
	return tids, nil
}
