// Command relix opens a database and either runs one SQL statement passed
// as the first argument, or, with no argument, starts an interactive
// readline REPL.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	relix "github.com/relix-db/relix"
	"github.com/relix-db/relix/internal/config"
	"github.com/relix-db/relix/internal/sql/executor"
)

func main() {
	dataDir := flag.String("data-dir", "./data", "database data directory")
	configPath := flag.String("config", "", "path to a YAML config file (overrides -data-dir)")
	histPath := flag.String("history", defaultHistoryPath(), "REPL history file path")
	histMax := flag.Int("history-max", 2000, "max history lines loaded into memory")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg.Storage.DataDir = *dataDir
	}
	if cfg.Server.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	db, err := relix.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("close database", "err", err)
		}
	}()

	exec := executor.NewExecutor(db)

	if flag.NArg() < 1 {
		if err := runREPL(exec, *histPath, *histMax); err != nil {
			log.Fatalf("repl: %v", err)
		}
		return
	}

	sql := flag.Arg(0)
	res, err := exec.ExecSQL(sql)
	if err != nil {
		log.Fatalf("exec: %v", err)
	}

	if len(res.Columns) > 0 {
		fmt.Println(res.Columns)
		for _, row := range res.Rows {
			fmt.Println(row)
		}
	}
	fmt.Fprintf(os.Stderr, "affected rows: %d\n", res.AffectedRows)
}
