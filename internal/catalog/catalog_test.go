package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	fm, err := storage.NewFileManager(dir, 512)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })
	bp := bufferpool.NewManager(fm, 16)

	cat, err := Open(fm, bp, dir)
	require.NoError(t, err)
	return cat
}

func TestCatalog_CreateTableAndSchema(t *testing.T) {
	cat := newTestCatalog(t)
	cols := []record.Column{
		{Name: "id", Type: record.IntType},
		{Name: "name", Type: record.VarCharType, Size: 20},
	}
	schema, err := cat.CreateTable("users", cols)
	require.NoError(t, err)
	require.Equal(t, "users", schema.Table)
	require.Equal(t, []record.Column{
		{Table: "users", Name: "id", Type: record.IntType},
		{Table: "users", Name: "name", Type: record.VarCharType, Size: 20},
	}, schema.Columns)

	got, err := cat.Schema("users")
	require.NoError(t, err)
	require.Equal(t, schema, got)
}

func TestCatalog_CreateTable_Duplicate(t *testing.T) {
	cat := newTestCatalog(t)
	cols := []record.Column{{Name: "id", Type: record.IntType}}
	_, err := cat.CreateTable("t", cols)
	require.NoError(t, err)

	_, err = cat.CreateTable("t", cols)
	require.ErrorIs(t, err, ErrTableExists)
}

func TestCatalog_Schema_NotFound(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.Schema("ghost")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestCatalog_DropTable(t *testing.T) {
	cat := newTestCatalog(t)
	cols := []record.Column{{Name: "id", Type: record.IntType}}
	_, err := cat.CreateTable("t", cols)
	require.NoError(t, err)

	require.NoError(t, cat.DropTable("t"))
	_, err = cat.Schema("t")
	require.ErrorIs(t, err, ErrTableNotFound)

	err = cat.DropTable("t")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestCatalog_ListTables(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.CreateTable("b", []record.Column{{Name: "id", Type: record.IntType}})
	require.NoError(t, err)
	_, err = cat.CreateTable("a", []record.Column{{Name: "id", Type: record.IntType}})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b"}, cat.ListTables())
}

func TestCatalog_ReopenRebuildsFromHeapFileWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	fm, err := storage.NewFileManager(dir, 512)
	require.NoError(t, err)
	bp := bufferpool.NewManager(fm, 16)

	cat, err := Open(fm, bp, dir)
	require.NoError(t, err)
	cols := []record.Column{
		{Name: "id", Type: record.IntType},
		{Name: "tag", Type: record.FixedCharType, Size: 8},
	}
	_, err = cat.CreateTable("widgets", cols)
	require.NoError(t, err)
	require.NoError(t, fm.Close())

	// Remove the snapshot CreateTable wrote, then reopen: rebuild() must
	// walk the schema heap file and recover the same schema.
	require.NoError(t, os.Remove(filepath.Join(dir, snapshotFile)))
	fm2, err := storage.NewFileManager(dir, 512)
	require.NoError(t, err)
	defer fm2.Close()
	bp2 := bufferpool.NewManager(fm2, 16)

	cat2, err := Open(fm2, bp2, dir)
	require.NoError(t, err)
	schema, err := cat2.Schema("widgets")
	require.NoError(t, err)
	require.Equal(t, []record.Column{
		{Table: "widgets", Name: "id", Type: record.IntType},
		{Table: "widgets", Name: "tag", Type: record.FixedCharType, Size: 8},
	}, schema.Columns)
}
