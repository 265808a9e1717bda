// Package engine wires together the storage, buffering, locking, and
// catalog layers into a single Database handle that the SQL executor
// drives.
package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/relix-db/relix/internal/bufferpool"
	"github.com/relix-db/relix/internal/catalog"
	"github.com/relix-db/relix/internal/config"
	"github.com/relix-db/relix/internal/lock"
	"github.com/relix-db/relix/internal/record"
	"github.com/relix-db/relix/internal/storage"
)

// Database is the top-level handle embedding every subsystem an
// executor needs: file/buffer management, the lock manager, and the
// catalog.
type Database struct {
	fm  *storage.FileManager
	bp  *bufferpool.Manager
	lm  *lock.Manager
	cat *catalog.Catalog

	tmpDir string
	log    *slog.Logger
}

// Open creates (or reopens) a database rooted at cfg.Storage.DataDir.
func Open(cfg *config.Config) (*Database, error) {
	fm, err := storage.NewFileManager(cfg.Storage.DataDir, cfg.Storage.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("engine: open file manager: %w", err)
	}
	bp := bufferpool.NewManager(fm, cfg.Storage.BufferPoolFrames)
	lm := lock.NewManager(time.Duration(cfg.Lock.WaitSeconds) * time.Second)

	cat, err := catalog.Open(fm, bp, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("engine: open catalog: %w", err)
	}

	return &Database{
		fm:     fm,
		bp:     bp,
		lm:     lm,
		cat:    cat,
		tmpDir: filepath.Join(cfg.Storage.DataDir, "tmp"),
		log:    slog.Default().With("component", "engine"),
	}, nil
}

func (db *Database) FileManager() *storage.FileManager { return db.fm }
func (db *Database) BufferPool() *bufferpool.Manager    { return db.bp }
func (db *Database) LockManager() *lock.Manager         { return db.lm }
func (db *Database) TempDir() string                   { return db.tmpDir }

// CreateTable registers a table's schema in the catalog and creates its
// backing heap file.
func (db *Database) CreateTable(name string, columns []record.Column) (record.Schema, error) {
	return db.cat.CreateTable(name, columns)
}

// DropTable removes a table's schema and its backing heap file.
func (db *Database) DropTable(name string) error {
	return db.cat.DropTable(name)
}

// Schema returns the registered schema for name.
func (db *Database) Schema(name string) (record.Schema, error) {
	return db.cat.Schema(name)
}

// HeapFileName returns the heap file backing a user table.
func (db *Database) HeapFileName(name string) string {
	return db.cat.HeapFileName(name)
}

// ListTables returns every registered table name.
func (db *Database) ListTables() []string {
	return db.cat.ListTables()
}

// Close flushes every dirty buffer frame and closes all open files.
func (db *Database) Close() error {
	if err := db.bp.FlushAll(); err != nil {
		return fmt.Errorf("engine: flush buffer pool: %w", err)
	}
	return db.fm.Close()
}
