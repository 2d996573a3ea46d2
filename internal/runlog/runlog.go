// Package runlog keeps an append-only CSV history of report runs under
// <root>/logs/run-log.csv.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/loanlens/loanlens/internal/model"
)

// Entry is one report run.
type Entry struct {
	Timestamp time.Time
	Report    string
	Source    string
	RowsRead  int
	RowsKept  int
	RowsOut   int
	Anchor    time.Time // zero when the input was empty
}

var columns = []string{"timestamp", "report", "source", "rows_read", "rows_kept", "rows_out", "anchor"}

// Header is the first line of a run log.
var Header = strings.Join(columns, ",")

// Log is a run log file.
type Log struct {
	path string
}

// Open returns the run log of the project rooted at root. The file is
// created on the first Append.
func Open(root string) *Log {
	return &Log{path: filepath.Join(root, "logs", "run-log.csv")}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append adds entries to the end of the log.
func (l *Log) Append(entries ...Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat run log: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = cw.Write(columns)
	}
	for _, e := range entries {
		_ = cw.Write(e.record())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing run log: %w", err)
	}
	return nil
}

// Entries returns every logged run, oldest first. A missing log has none.
func (l *Log) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return decode(f)
}

func (e Entry) record() []string {
	var anchor string
	if !e.Anchor.IsZero() {
		anchor = e.Anchor.Format(model.DateFormat)
	}
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Report,
		e.Source,
		strconv.Itoa(e.RowsRead),
		strconv.Itoa(e.RowsKept),
		strconv.Itoa(e.RowsOut),
		anchor,
	}
}

// decode reads a run log by column name, so logs written with a different
// column order still load.
func decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run log header: %w", err)
	}
	pos := make(map[string]int, len(head))
	for i, name := range head {
		pos[name] = i
	}
	for _, c := range columns {
		if _, ok := pos[c]; !ok {
			return nil, fmt.Errorf("run log header: missing column %s", c)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading run log: %w", err)
		}
		field := func(name string) string {
			if i := pos[name]; i < len(row) {
				return row[i]
			}
			return ""
		}
		e, err := parseEntry(field)
		if err != nil {
			return nil, fmt.Errorf("run log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}

func parseEntry(field func(string) string) (Entry, error) {
	e := Entry{Report: field("report"), Source: field("source")}

	var err error
	if e.Timestamp, err = time.Parse(time.RFC3339, field("timestamp")); err != nil {
		return Entry{}, fmt.Errorf("timestamp: %w", err)
	}
	for name, dst := range map[string]*int{"rows_read": &e.RowsRead, "rows_kept": &e.RowsKept, "rows_out": &e.RowsOut} {
		if *dst, err = strconv.Atoi(field(name)); err != nil {
			return Entry{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	if s := field("anchor"); s != "" {
		if e.Anchor, err = time.Parse(model.DateFormat, s); err != nil {
			return Entry{}, fmt.Errorf("anchor: %w", err)
		}
	}
	return e, nil
}
