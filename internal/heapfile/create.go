package heapfile

import (
	"fmt"

	"github.com/relix-db/relix/internal/storage"
)

// CreateHeapFile lays out a brand-new heap file: one directory page at
// page 0, fully populated with PageEntry references to initialTuplePages
// freshly initialized, empty tuple pages (capped at how many PageEntry
// slots the directory page can hold). It writes directly through the
// FileManager rather than the buffer pool, since nothing is cached yet at
// file-creation time.
func CreateHeapFile(fm *storage.FileManager, filename string, tableName string, initialTuplePages int) error {
	if err := fm.CreateFileIfNotExists(filename); err != nil {
		return fmt.Errorf("heapfile: create %q: %w", filename, err)
	}
	if existing, err := fm.PageCount(filename); err != nil {
		return fmt.Errorf("heapfile: create %q: %w", filename, err)
	} else if existing > 0 {
		return nil // already laid out
	}

	blockSize := fm.BlockSize()
	capacity := storage.EntriesPerDirectory(blockSize)
	if initialTuplePages <= 0 || initialTuplePages > capacity {
		initialTuplePages = capacity
	}

	dirPageNum, err := fm.Append(filename, 1)
	if err != nil {
		return fmt.Errorf("heapfile: create %q: append directory: %w", filename, err)
	}
	if dirPageNum != 0 {
		return fmt.Errorf("heapfile: create %q: expected fresh directory at page 0, got %d", filename, dirPageNum)
	}

	dirBuf := make([]byte, blockSize)
	dp := storage.InitDirectoryPage(dirBuf, 1, tableName)

	for e := 0; e < initialTuplePages; e++ {
		tuplePageNum, err := fm.Append(filename, 1)
		if err != nil {
			return fmt.Errorf("heapfile: create %q: append tuple page: %w", filename, err)
		}
		tupleBuf := make([]byte, blockSize)
		storage.InitTuplePage(tupleBuf)
		if err := fm.Write(filename, tuplePageNum, tupleBuf); err != nil {
			return fmt.Errorf("heapfile: create %q: write tuple page: %w", filename, err)
		}
		dp.SetEntry(e, storage.PageEntry{
			PageNumber: tuplePageNum,
			FreeSpace:  uint32(blockSize) - uint32(storage.TuplePageHeaderSize()),
		})
	}
	dp.SetEntryCount(uint64(initialTuplePages))

	if err := fm.Write(filename, 0, dirBuf); err != nil {
		return fmt.Errorf("heapfile: create %q: write directory: %w", filename, err)
	}
	return nil
}
