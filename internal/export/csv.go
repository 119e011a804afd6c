// Package export writes the unified table to disk and to the console.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"upperlimit/models"
)

// utf8BOM lets spreadsheet applications detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileTimeLayout is the run timestamp embedded in output file names.
const FileTimeLayout = "20060102_150405"

type CSVWriter struct {
	dir    string
	prefix string
	now    func() time.Time
	write  func(io.Writer, []models.StockRecord) error
}

func NewCSVWriter(dir, prefix string) *CSVWriter {
	return &CSVWriter{dir: dir, prefix: prefix, now: time.Now, write: WriteCSV}
}

// Path returns the file name a save at t would use.
func (w *CSVWriter) Path(t time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", w.prefix, t.Format(FileTimeLayout)))
}

// Save writes records to a new timestamped file and returns its path.
// An existing file is never overwritten.
func (w *CSVWriter) Save(records []models.StockRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no data to save")
	}

	// Create the output directory if it doesn't exist
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := w.Path(w.now())
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	// a failed run leaves no partial file behind
	if err := w.write(file, records); err != nil {
		file.Close()
		os.Remove(filename)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(filename)
		return "", fmt.Errorf("failed to close CSV file: %w", err)
	}
	return filename, nil
}

// WriteCSV writes the BOM, the header and one line per record.
func WriteCSV(out io.Writer, records []models.StockRecord) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Values()); err != nil {
			return fmt.Errorf("failed to write record %s: %w", record.StockName, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads a file written by Save and returns its header and rows.
func ReadCSV(filePath string) ([]string, [][]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", filePath)
	}
	return records[0], records[1:], nil
}
