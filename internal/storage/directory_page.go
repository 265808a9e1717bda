package storage

import "github.com/relix-db/relix/internal/alias/bx"

// Directory page header layout (164 bytes with the default 128-byte table
// name field), followed by a PageEntry array:
//
//	offset  0  page_type       uint32
//	offset  4  next_page       uint64  (NoPageNumber if none)
//	offset 12  prev_page       uint64  (NoPageNumber if none)
//	offset 20  entry_count     uint64
//	offset 28  dir_index       uint64  (this directory's position in the chain, 1-based)
//	offset 36  table_name      [128]byte, NUL-padded
//	offset 164 entries[entry_count] PageEntry
const (
	dirOffPageType   = 0
	dirOffNextPage   = 4
	dirOffPrevPage   = 12
	dirOffEntryCount = 20
	dirOffDirIndex   = 28
	dirOffTableName  = 36
)

// PageEntry describes one tuple page tracked by a directory page: its page
// number and an advisory free-space count.
type PageEntry struct {
	PageNumber uint64
	FreeSpace  uint32
}

// DirectoryPage is a thin accessor over a raw page buffer formatted as a
// directory page.
type DirectoryPage struct {
	Buf []byte
}

// InitDirectoryPage zero-fills buf and writes a fresh directory header.
func InitDirectoryPage(buf []byte, dirIndex uint64, tableName string) DirectoryPage {
	clear(buf)
	d := DirectoryPage{Buf: buf}
	d.SetPageType(PageTypeDirectory)
	d.SetNextPage(NoPageNumber)
	d.SetPrevPage(NoPageNumber)
	d.SetEntryCount(0)
	d.SetDirIndex(dirIndex)
	d.SetTableName(tableName)
	return d
}

func (d DirectoryPage) PageType() PageType { return PageType(bx.U32At(d.Buf, dirOffPageType)) }
func (d DirectoryPage) SetPageType(t PageType) {
	bx.PutU32At(d.Buf, dirOffPageType, uint32(t))
}

func (d DirectoryPage) NextPage() uint64 { return bx.U64At(d.Buf, dirOffNextPage) }
func (d DirectoryPage) SetNextPage(p uint64) {
	bx.PutU64At(d.Buf, dirOffNextPage, p)
}

func (d DirectoryPage) PrevPage() uint64 { return bx.U64At(d.Buf, dirOffPrevPage) }
func (d DirectoryPage) SetPrevPage(p uint64) {
	bx.PutU64At(d.Buf, dirOffPrevPage, p)
}

func (d DirectoryPage) EntryCount() uint64 { return bx.U64At(d.Buf, dirOffEntryCount) }
func (d DirectoryPage) SetEntryCount(n uint64) {
	bx.PutU64At(d.Buf, dirOffEntryCount, n)
}

func (d DirectoryPage) DirIndex() uint64 { return bx.U64At(d.Buf, dirOffDirIndex) }
func (d DirectoryPage) SetDirIndex(i uint64) {
	bx.PutU64At(d.Buf, dirOffDirIndex, i)
}

func (d DirectoryPage) TableName() string {
	return bx.FixedString(d.Buf[dirOffTableName : dirOffTableName+TableNameBytes])
}
func (d DirectoryPage) SetTableName(name string) {
	bx.PutFixedString(d.Buf[dirOffTableName:dirOffTableName+TableNameBytes], name)
}

func (d DirectoryPage) entryOffset(i int) int {
	return directoryHeaderSize + i*PageEntrySize
}

// Entry reads the i-th PageEntry. i must be < EntryCount() (or within
// capacity, for entries being initialized).
func (d DirectoryPage) Entry(i int) PageEntry {
	o := d.entryOffset(i)
	return PageEntry{
		PageNumber: bx.U64At(d.Buf, o),
		FreeSpace:  bx.U32At(d.Buf, o+8),
	}
}

// SetEntry writes the i-th PageEntry.
func (d DirectoryPage) SetEntry(i int, e PageEntry) {
	o := d.entryOffset(i)
	bx.PutU64At(d.Buf, o, e.PageNumber)
	bx.PutU32At(d.Buf, o+8, e.FreeSpace)
}

// Capacity reports how many PageEntry slots this page's buffer can hold.
func (d DirectoryPage) Capacity() int {
	return EntriesPerDirectory(len(d.Buf))
}
