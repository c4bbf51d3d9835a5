// Package outbox maintains the append-only delivery log. One row is
// written per contact that reaches the send attempt (or is rejected for an
// invalid address); rows are never rewritten.
package outbox

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

var columns = []string{"email", "hotel_name", "city", "contact_name", "status", "info", "timestamp"}

// Entry is one delivery outcome record.
type Entry struct {
	Email       string
	HotelName   string
	City        string
	ContactName string
	Status      string
	Info        string
	Timestamp   string
}

// Log appends entries to a CSV file, writing the header only when the file
// is newly created. The file is opened and closed per entry so a crash
// mid-run loses at most the entry being written.
type Log struct {
	path string
}

// New constructs a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Append writes one entry.
func (l *Log) Append(entry Entry) error {
	_, statErr := os.Stat(l.path)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("outbox: open %s: %w", l.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(columns); err != nil {
			return fmt.Errorf("outbox: write header: %w", err)
		}
	}

	record := []string{
		entry.Email,
		entry.HotelName,
		entry.City,
		entry.ContactName,
		entry.Status,
		entry.Info,
		entry.Timestamp,
	}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("outbox: write entry: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("outbox: flush: %w", err)
	}
	return f.Close()
}
