// Package relix is the embeddable entry point: open a Database rooted at
// a data directory and drive it with SQL through internal/sql/executor.
package relix

import (
	"github.com/relix-db/relix/internal/config"
	"github.com/relix-db/relix/internal/engine"
)

// Database is the engine handle: storage, buffering, locking, and
// catalog wired together.
type Database = engine.Database

// Open opens (or creates) a database using cfg. Pass config.Default()
// with Storage.DataDir set to use an on-disk default layout.
func Open(cfg *config.Config) (*Database, error) {
	return engine.Open(cfg)
}
