package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/relix-db/relix/internal/record"
)

// snapshotFile is a zstd-compressed JSON convenience cache of every
// table's schema, written on every catalog mutation and read once at
// Open. It is never the source of truth — the schema heap file is — so a
// missing or corrupt snapshot only costs a rebuild scan, never
// correctness.
const snapshotFile = "catalog_snapshot.json.zst"

type snapshotDoc struct {
	Tables map[string]record.Schema `json:"tables"`
}

func (c *Catalog) snapshotPath() string {
	return filepath.Join(c.dataDir, snapshotFile)
}

func (c *Catalog) writeSnapshot() error {
	doc := snapshotDoc{Tables: c.tables}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog: marshal snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("catalog: new zstd encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	tmp := c.snapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("catalog: write snapshot: %w", err)
	}
	return os.Rename(tmp, c.snapshotPath())
}

// loadSnapshot reads the compressed snapshot, if present, into c.tables.
// Returns an error (never fatal to the caller) on any missing/corrupt
// file so Open can fall back to rebuilding from the heap file.
func (c *Catalog) loadSnapshot() error {
	raw, err := os.ReadFile(c.snapshotPath())
	if err != nil {
		return fmt.Errorf("catalog: read snapshot: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("catalog: new zstd decoder: %w", err)
	}
	defer dec.Close()
	decompressed, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("catalog: decompress snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(decompressed, &doc); err != nil {
		return fmt.Errorf("catalog: unmarshal snapshot: %w", err)
	}

	c.mu.Lock()
	c.tables = doc.Tables
	if c.tables == nil {
		c.tables = make(map[string]record.Schema)
	}
	c.mu.Unlock()
	return nil
}
