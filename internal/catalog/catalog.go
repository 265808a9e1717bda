package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/heapfile"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

var (
	ErrTableExists   = errors.New("catalog: table already exists")
	ErrTableNotFound = errors.New("catalog: table not found")
)

// Catalog is the system catalog: the authoritative record of every table's
// schema, backed by the "schema" heap file, with an in-memory cache kept
// warm from a compressed snapshot (see snapshot.go) or, failing that,
// rebuilt by scanning the schema heap file directly.
type Catalog struct {
	fm      *storage.FileManager
	bp      *bufferpool.Manager
	dataDir string

	mu     sync.RWMutex
	tables map[string]record.Schema

	log *slog.Logger
}

// Open loads (or creates) the system catalog rooted at dataDir.
func Open(fm *storage.FileManager, bp *bufferpool.Manager, dataDir string) (*Catalog, error) {
	c := &Catalog{
		fm:      fm,
		bp:      bp,
		dataDir: dataDir,
		tables:  make(map[string]record.Schema),
		log:     slog.Default().With("component", "catalog"),
	}

	if !fm.Exists(SchemaFile) {
		if err := heapfile.CreateHeapFile(fm, SchemaFile, "schema", 0); err != nil {
			return nil, fmt.Errorf("catalog: create schema heap file: %w", err)
		}
	}

	if err := c.loadSnapshot(); err != nil {
		c.log.Warn("catalog snapshot unavailable, rebuilding from schema heap file", "err", err)
		if err := c.rebuild(); err != nil {
			return nil, fmt.Errorf("catalog: rebuild from heap file: %w", err)
		}
	}
	return c, nil
}

// rebuild scans the schema heap file end to end and repopulates the
// in-memory table cache from scratch.
func (c *Catalog) rebuild() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]record.Schema)

	type colOrder struct {
		order int
		col   record.Column
	}
	byTable := make(map[string][]colOrder)

	err := c.forEachColumnRow(func(tableName string, order int, col record.Column, _ heapfile.TID) (bool, error) {
		byTable[tableName] = append(byTable[tableName], colOrder{order, col})
		return false, nil
	})
	if err != nil {
		return err
	}

	for name, cols := range byTable {
		sort.Slice(cols, func(i, j int) bool { return cols[i].order < cols[j].order })
		columns := make([]record.Column, len(cols))
		for i, co := range cols {
			columns[i] = co.col
		}
		c.tables[name] = record.Schema{Table: name, Columns: columns}
	}
	return nil
}

// forEachColumnRow walks every occupied row of the schema heap file,
// calling visit for each. If visit returns del=true, that row's slot is
// marked free and the owning directory entry's free-space advisory is
// credited back.
func (c *Catalog) forEachColumnRow(visit func(tableName string, order int, col record.Column, tid heapfile.TID) (del bool, err error)) error {
	it, err := heapfile.NewHeapFileIterator(c.fm, c.bp, SchemaFile)
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		ok, err := it.NextPageInDir()
		if err != nil {
			return err
		}
		if !ok {
			nd, err := it.NextDir()
			if err != nil {
				return err
			}
			if nd {
				continue
			}
			break
		}

		tp, _ := it.TuplePage()
		n := int(tp.SlotCount())
		for slotIdx := 0; slotIdx < n; slotIdx++ {
			s := tp.Slot(slotIdx)
			if !s.IsOccupied() {
				continue
			}
			off := s.Offset()
			tableName, order, col, length, err := decodeColumnRow(tp.Buf[off:])
			if err != nil {
				return err
			}
			del, err := visit(tableName, order, col, heapfile.TID{PageNumber: it.CurrentPageId().PageNumber, Slot: slotIdx})
			if err != nil {
				return err
			}
			if del {
				tp.SetSlot(slotIdx, s.WithOccupied(false))
				it.AdjustCurrentFreeSpace(int64(length))
			}
		}
	}
	return nil
}

// stampOwningTable returns a copy of columns with Table set to name,
// leaving the caller's slice untouched.
func stampOwningTable(name string, columns []record.Column) []record.Column {
	stamped := make([]record.Column, len(columns))
	for i, col := range columns {
		col.Table = name
		stamped[i] = col
	}
	return stamped
}

// CreateTable registers a new table's schema in the catalog and creates
// its backing heap file.
func (c *Catalog) CreateTable(name string, columns []record.Column) (record.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return record.Schema{}, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	columns = stampOwningTable(name, columns)

	it, err := heapfile.NewHeapFileIterator(c.fm, c.bp, SchemaFile)
	if err != nil {
		return record.Schema{}, err
	}
	rows := make([][]byte, len(columns))
	for i, col := range columns {
		rows[i] = encodeColumnRow(name, i, col)
	}
	_, err = it.InsertTuples(rows)
	it.Close()
	if err != nil {
		return record.Schema{}, fmt.Errorf("catalog: insert schema rows for %s: %w", name, err)
	}

	if err := heapfile.CreateHeapFile(c.fm, heapFileName(name), name, 0); err != nil {
		return record.Schema{}, fmt.Errorf("catalog: create heap file for %s: %w", name, err)
	}

	schema := record.Schema{Table: name, Columns: columns}
	c.tables[name] = schema
	if err := c.writeSnapshot(); err != nil {
		c.log.Warn("catalog: failed to write snapshot after create table", "table", name, "err", err)
	}
	return schema, nil
}

// DropTable removes a table's schema rows from the catalog and deletes its
// backing heap file.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	err := c.forEachColumnRow(func(tableName string, _ int, _ record.Column, _ heapfile.TID) (bool, error) {
		return tableName == name, nil
	})
	if err != nil {
		return fmt.Errorf("catalog: delete schema rows for %s: %w", name, err)
	}

	if err := c.fm.DeleteFile(heapFileName(name)); err != nil {
		return fmt.Errorf("catalog: delete heap file for %s: %w", name, err)
	}

	delete(c.tables, name)
	if err := c.writeSnapshot(); err != nil {
		c.log.Warn("catalog: failed to write snapshot after drop table", "table", name, "err", err)
	}
	return nil
}

// Schema returns the schema registered for name.
func (c *Catalog) Schema(name string) (record.Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.tables[name]
	if !ok {
		return record.Schema{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return s, nil
}

// HeapFileName returns the heap file backing a user table.
func (c *Catalog) HeapFileName(name string) string { return heapFileName(name) }

// ListTables returns every registered table name, sorted.
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
