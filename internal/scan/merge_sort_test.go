package scan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

// fakeScan is an in-memory Scan over a fixed slice of tuples, used to
// drive Sort without needing a real heap file on disk.
type fakeScan struct {
	schema record.Schema
	tuples []record.Tuple
	pos    int
}

func newFakeScan(schema record.Schema, values []int) *fakeScan {
	tuples := make([]record.Tuple, len(values))
	for i, v := range values {
		tup, err := record.NewTuple(schema, []string{fmt.Sprintf("%d", v)})
		if err != nil {
			panic(err)
		}
		tuples[i] = tup
	}
	return &fakeScan{schema: schema, tuples: tuples, pos: -1}
}

func (f *fakeScan) GetFirst() error { f.pos = -1; return nil }
func (f *fakeScan) Next() (bool, error) {
	f.pos++
	return f.pos < len(f.tuples), nil
}
func (f *fakeScan) Get() (record.Tuple, error) { return f.tuples[f.pos], nil }
func (f *fakeScan) Schema() record.Schema      { return f.schema }
func (f *fakeScan) Close()                     {}

func intSchema() record.Schema {
	return record.Schema{Table: "t", Columns: []record.Column{{Name: "n", Type: record.IntType}}}
}

func newSortDeps(t *testing.T) (*storage.FileManager, *bufferpool.Manager) {
	t.Helper()
	fm, err := storage.NewFileManager(t.TempDir(), 512)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })
	return fm, bufferpool.NewManager(fm, 32)
}

func drainInts(t *testing.T, s Scan) []int64 {
	t.Helper()
	var out []int64
	require.NoError(t, s.GetFirst())
	for {
		ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		tup, err := s.Get()
		require.NoError(t, err)
		out = append(out, tup.Get(0).Num)
	}
	return out
}

func TestSort_Ascending(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	in := newFakeScan(schema, []int{5, 3, 8, 1, 9, 2})

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n"}})
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, []int64{1, 2, 3, 5, 8, 9}, drainInts(t, out))
}

func TestSort_Descending(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	in := newFakeScan(schema, []int{5, 3, 8, 1})

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n", Desc: true}})
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, []int64{8, 5, 3, 1}, drainInts(t, out))
}

func TestSort_EmptyInput(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	in := newFakeScan(schema, nil)

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n"}})
	require.NoError(t, err)
	defer out.Close()

	require.Empty(t, drainInts(t, out))
}

func TestSort_SingleRun(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	in := newFakeScan(schema, []int{1, 2, 3})

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n"}})
	require.NoError(t, err)
	defer out.Close()

	require.Equal(t, []int64{1, 2, 3}, drainInts(t, out))
}

func TestSort_ForcesMultipleRuns(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	values := make([]int, 0, 2000)
	for i := 1999; i >= 0; i-- {
		values = append(values, i)
	}
	in := newFakeScan(schema, values)

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n"}})
	require.NoError(t, err)
	defer out.Close()

	got := drainInts(t, out)
	require.Len(t, got, 2000)
	for i := 0; i < 2000; i++ {
		require.Equal(t, int64(i), got[i])
	}
}

// TestSort_MultiPassMerge feeds replacement selection a strictly
// descending sequence long enough to produce more than mergeFanIn runs,
// forcing mergeRuns to fold them together over two passes instead of one.
func TestSort_MultiPassMerge(t *testing.T) {
	schema := intSchema()
	fm, bp := newSortDeps(t)
	const n = 5000 // > mergeFanIn * defaultRunBufferSize runs worth of descending input
	values := make([]int, 0, n)
	for i := n - 1; i >= 0; i-- {
		values = append(values, i)
	}
	in := newFakeScan(schema, values)

	out, err := Sort(fm, bp, in, []OrderKey{{Column: "n"}})
	require.NoError(t, err)
	defer out.Close()

	got := drainInts(t, out)
	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		require.Equal(t, int64(i), got[i])
	}
}
