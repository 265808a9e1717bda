package scan

import (
	"fmt"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/heapfile"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

// TableScan sequentially reads every occupied slot of a heap file, across
// every tuple page of every directory in the chain, in storage order.
type TableScan struct {
	it      *heapfile.HeapFileIterator
	schema  record.Schema
	curSlot int
	hasPage bool
}

// NewTableScan opens a sequential scan over filename.
func NewTableScan(fm *storage.FileManager, bp *bufferpool.Manager, filename string, schema record.Schema) (*TableScan, error) {
	it, err := heapfile.NewHeapFileIterator(fm, bp, filename)
	if err != nil {
		return nil, fmt.Errorf("scan: table scan %q: %w", filename, err)
	}
	return &TableScan{it: it, schema: schema, curSlot: -1}, nil
}

// findNextPage advances to the next tuple page holding any entries,
// across directory pages as needed. Every PageEntry in a directory always
// references a tuple page — unlike the single-free-list layouts where a
// raw page-number scan has to skip interleaved directory pages, our
// directory/tuple-page separation means NextPageInDir/NextDir never land
// on anything but a tuple page.
func (s *TableScan) findNextPage() (bool, error) {
	ok, err := s.it.NextPageInDir()
	if err != nil {
		return false, err
	}
	if ok {
		s.curSlot = -1
		return true, nil
	}
	for {
		nd, err := s.it.NextDir()
		if err != nil {
			return false, err
		}
		if !nd {
			return false, nil
		}
		ok, err := s.it.NextPageInDir()
		if err != nil {
			return false, err
		}
		if ok {
			s.curSlot = -1
			return true, nil
		}
	}
}

func (s *TableScan) GetFirst() error {
	if err := s.it.FindFirstDir(); err != nil {
		return err
	}
	s.curSlot = -1
	ok, err := s.findNextPage()
	if err != nil {
		return err
	}
	s.hasPage = ok
	return nil
}

func (s *TableScan) Next() (bool, error) {
	for {
		if !s.hasPage {
			return false, nil
		}
		tp, ok := s.it.TuplePage()
		if !ok {
			next, err := s.findNextPage()
			if err != nil {
				return false, err
			}
			s.hasPage = next
			continue
		}
		n := int(tp.SlotCount())
		for i := s.curSlot + 1; i < n; i++ {
			if tp.Slot(i).IsOccupied() {
				s.curSlot = i
				return true, nil
			}
		}
		next, err := s.findNextPage()
		if err != nil {
			return false, err
		}
		s.hasPage = next
	}
}

func (s *TableScan) Get() (record.Tuple, error) {
	tp, ok := s.it.TuplePage()
	if !ok {
		return record.Tuple{}, fmt.Errorf("scan: table scan: no current page")
	}
	slot := tp.Slot(s.curSlot)
	if !slot.IsOccupied() {
		return record.Tuple{}, fmt.Errorf("scan: table scan: current slot not occupied")
	}
	tup, _, err := record.DecodeTuple(s.schema, tp.Buf, int(slot.Offset()))
	return tup, err
}

func (s *TableScan) Schema() record.Schema { return s.schema }

func (s *TableScan) Close() { s.it.Close() }

// CurrentTID returns the page/slot of the tuple the cursor is positioned
// on, for callers that need a stable row handle.
func (s *TableScan) CurrentTID() heapfile.TID {
	return heapfile.TID{PageNumber: s.it.CurrentPageId().PageNumber, Slot: s.curSlot}
}
