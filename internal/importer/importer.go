// Package importer loads the book catalog from CSV.
package importer

import (
	"context"      // Context for store calls
	"encoding/csv" // CSV parsing
	"errors"       // io.EOF detection
	"fmt"          // Error wrapping
	"io"           // Input reader
	"strconv"      // Year parsing
	"strings"      // Field trimming

	"book_catalog/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// DefaultBatchSize is used when Import is given a non-positive batch size
const DefaultBatchSize = 500

// BookWriter stores books, ignoring ISBNs that already exist
type BookWriter interface {
	InsertBooks(ctx context.Context, books []domain.Book, batchSize int) (int64, error)
}

// Import reads isbn,title,author,year rows from r and writes them to w in batches.
// A first row whose first column is "isbn" is treated as a header. It returns the number of rows read.
func Import(ctx context.Context, r io.Reader, w BookWriter, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // Column count checked per row for a better message
	cr.TrimLeadingSpace = true

	var (
		batch    = make([]domain.Book, 0, batchSize)
		read     int
		inserted int64
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := w.InsertBooks(ctx, batch, batchSize)
		if err != nil {
			return fmt.Errorf("insert books: %w", err)
		}
		inserted += n
		batch = batch[:0]
		return nil
	}

	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return read, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "isbn") {
			continue // Header
		}
		book, err := parseRecord(record)
		if err != nil {
			return read, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, book)
		read++
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return read, err
			}
		}
	}
	if err := flush(); err != nil {
		return read, err
	}

	logrus.WithFields(logrus.Fields{
		"read":     read,                   // Rows parsed
		"inserted": inserted,               // New books
		"skipped":  int64(read) - inserted, // Already present
	}).Info("Catalog import finished")
	return read, nil
}

func parseRecord(record []string) (domain.Book, error) {
	if len(record) != 4 {
		return domain.Book{}, fmt.Errorf("expected 4 columns, got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if record[0] == "" {
		return domain.Book{}, errors.New("empty isbn")
	}
	year, err := strconv.Atoi(record[3])
	if err != nil {
		return domain.Book{}, fmt.Errorf("invalid year %q", record[3])
	}
	return domain.Book{ISBN: record[0], Title: record[1], Author: record[2], Year: year}, nil
}
