package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/relix-db/relix/internal/sql/executor"
)

// history is a simple append-only statement log, one statement per line,
// independent of readline's own in-memory history.
type history struct {
	path  string
	lines []string
}

func newHistory(path string) *history { return &history{path: path} }

func (h *history) load(max int) error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		if max > 0 && len(h.lines) > max {
			h.lines = h.lines[len(h.lines)-max:]
		}
	}
	return sc.Err()
}

func (h *history) append(stmt string) error {
	stmt = compactOneLine(stmt)
	if stmt == "" || h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, stmt); err != nil {
		return err
	}
	h.lines = append(h.lines, stmt)
	return nil
}

func (h *history) print(last int) {
	if last <= 0 || last > len(h.lines) {
		last = len(h.lines)
	}
	start := len(h.lines) - last
	if start < 0 {
		start = 0
	}
	for i := start; i < len(h.lines); i++ {
		fmt.Printf("%5d  %s\n", i+1, h.lines[i])
	}
}

func compactOneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// statementComplete reports whether buf has a terminating ';' outside a
// single-quoted string.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false
	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func isMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".relix_history"
	}
	return filepath.Join(home, ".relix_history")
}

func printResult(res *executor.Result) {
	if len(res.Columns) == 0 {
		fmt.Printf("OK (%d affected)\n", res.AffectedRows)
		return
	}

	cols := res.Columns
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cellsFor := func(row []any) []string {
		cells := make([]string, len(cols))
		for i := range cols {
			if i < len(row) && row[i] != nil {
				cells[i] = fmt.Sprintf("%v", row[i])
			} else {
				cells[i] = "NULL"
			}
		}
		return cells
	}
	for _, row := range res.Rows {
		cells := cellsFor(row)
		for i, c := range cells {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	printRow := func(values []string) {
		for i := range cols {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(values[i], widths[i]))
		}
		fmt.Println()
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", widths[i]))
	}
	fmt.Println()
	for _, row := range res.Rows {
		printRow(cellsFor(row))
	}
	fmt.Printf("(%d rows)\n", res.AffectedRows)
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

// runREPL drives an interactive readline session against exec, accumulating
// input lines until a statement-terminating ';' is seen.
func runREPL(exec *executor.Executor, histPath string, histMax int) error {
	h := newHistory(histPath)
	_ = h.load(histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "relix> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Println("type \\help for help")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("relix> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMetaCommand(line) {
			switch line {
			case "\\q", "quit", "exit":
				return nil
			case "\\help":
				fmt.Println(`meta commands:
  \q | quit | exit       quit
  \history               print history
  \help                  show help

sql:
  end statement with ';' (parser requires it)
  multiline is supported (CLI will wait until ';')`)
			case "\\history":
				h.print(50)
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("relix> ")

		_ = h.append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		res, err := exec.ExecSQL(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(res)
	}
}
