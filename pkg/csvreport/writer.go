// Package csvreport streams canonical rows into a CSV file with a fixed header.
package csvreport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mukfin/scripts/pkg/inventory"
	"github.com/mukfin/scripts/pkg/utils"
)

// ErrRowWidth is returned when a row does not match the width of the schema
var ErrRowWidth = errors.New("row width does not match schema")

// Writer is an append-only CSV sink. The header is written exactly once on
// Create and every WriteRows call is flushed, so rows collected before a crash
// stay on disk. It is safe for use from multiple goroutines.
type Writer struct {
	mu     sync.Mutex
	path   string
	schema inventory.Schema
	file   *os.File
	csv    *csv.Writer
	rows   int
}

// Create truncates (or creates) path, creating missing parent directories,
// and writes the schema header
func Create(path string, schema inventory.Schema) (*Writer, error) {
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := &Writer{
		path:   path,
		schema: schema,
		file:   file,
		csv:    csv.NewWriter(file),
	}
	if err := w.write(schema.Columns); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	return w, nil
}

// WriteRows validates and appends rows. Nothing of the batch is written when a
// row has the wrong width.
func (w *Writer) WriteRows(rows []inventory.Row) error {
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		fields := row.Fields()
		if len(fields) != w.schema.Width() {
			return fmt.Errorf("%w: row %d of %s has %d fields, want %d",
				ErrRowWidth, i, w.schema.Name, len(fields), w.schema.Width())
		}
		records = append(records, fields)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return fmt.Errorf("writer for %s is closed", w.path)
	}
	if err := w.csv.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", w.path, err)
	}
	w.rows += len(records)
	return nil
}

// Rows returns the number of data rows written so far, excluding the header
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes and closes the file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush %s: %w", w.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", w.path, closeErr)
	}
	return nil
}

func (w *Writer) write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}
