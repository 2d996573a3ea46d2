package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loanlens/loanlens/internal/config"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/snapshot"
)

// CSV reads snapshot rows from a CSV file, or from every *.csv file in a
// directory in name order.
type CSV struct {
	Path string
}

func openCSV(_ context.Context, cfg config.SourceConfig) (Source, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("csv source: path is required")
	}
	return &CSV{Path: cfg.Path}, nil
}

// Describe returns the source path.
func (c *CSV) Describe() string { return "csv:" + c.Path }

// Close is a no-op.
func (c *CSV) Close() error { return nil }

// Load reads all records.
func (c *CSV) Load(ctx context.Context) ([]model.RawRecord, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	if !info.IsDir() {
		return readFile(c.Path)
	}

	files, err := Scan(c.Path)
	if err != nil {
		return nil, err
	}
	var all []model.RawRecord
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// Scan returns the paths of the CSV files directly inside dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func readFile(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	recs, err := snapshot.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
