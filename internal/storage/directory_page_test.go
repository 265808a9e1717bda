package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDirectoryPage_EmptyHeader(t *testing.T) {
	buf := make([]byte, 512)
	d := InitDirectoryPage(buf, 3, "users")
	require.Equal(t, PageTypeDirectory, d.PageType())
	require.Equal(t, NoPageNumber, d.NextPage())
	require.Equal(t, NoPageNumber, d.PrevPage())
	require.Equal(t, uint64(0), d.EntryCount())
	require.Equal(t, uint64(3), d.DirIndex())
	require.Equal(t, "users", d.TableName())
}

func TestDirectoryPage_SetNextPrevPage(t *testing.T) {
	d := InitDirectoryPage(make([]byte, 512), 0, "t")
	d.SetNextPage(7)
	d.SetPrevPage(2)
	require.Equal(t, uint64(7), d.NextPage())
	require.Equal(t, uint64(2), d.PrevPage())
}

func TestDirectoryPage_EntryRoundTrip(t *testing.T) {
	d := InitDirectoryPage(make([]byte, 512), 0, "t")
	d.SetEntryCount(2)
	d.SetEntry(0, PageEntry{PageNumber: 10, FreeSpace: 100})
	d.SetEntry(1, PageEntry{PageNumber: 11, FreeSpace: 50})

	require.Equal(t, PageEntry{PageNumber: 10, FreeSpace: 100}, d.Entry(0))
	require.Equal(t, PageEntry{PageNumber: 11, FreeSpace: 50}, d.Entry(1))
}

func TestDirectoryPage_Capacity(t *testing.T) {
	d := InitDirectoryPage(make([]byte, 512), 0, "t")
	require.Equal(t, EntriesPerDirectory(512), d.Capacity())
	require.Greater(t, d.Capacity(), 0)
}

func TestDirectoryPage_TableNameLongerThanFieldIsTruncated(t *testing.T) {
	long := make([]byte, TableNameBytes+10)
	for i := range long {
		long[i] = 'a'
	}
	d := InitDirectoryPage(make([]byte, 512), 0, string(long))
	require.LessOrEqual(t, len(d.TableName()), TableNameBytes)
}
