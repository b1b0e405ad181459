package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteCSV serializes a frame to <dir>/<name>.csv, creating the directory
// when needed. Null values render as empty cells. Returns the written path.
func WriteCSV(dir, name string, f *Frame) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteCSVTo(file, f); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// WriteCSVTo streams a frame as CSV to an arbitrary writer.
func WriteCSVTo(out io.Writer, f *Frame) error {
	w := csv.NewWriter(out)

	if err := w.Write(f.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, f.NumCols())
	for i := 0; i < f.NumRows(); i++ {
		for j, col := range f.Columns() {
			record[j] = col.Format(i)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
