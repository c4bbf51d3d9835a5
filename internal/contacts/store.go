package contacts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/mailmerge/internal/util"
)

// ErrFormat indicates the contact file is malformed or is missing required
// columns. It is fatal: the run aborts before any send.
var ErrFormat = errors.New("contact file format error")

// RequiredColumns lists the columns every contact file must carry. Extra
// columns are preserved but never interpreted.
var RequiredColumns = []string{"email", "hotel_name", "city", "contact_name", "notes", "status", "sent_at"}

// List is the loaded contact file: rows in original order plus the header
// exactly as found, so Persist can rewrite the file losslessly.
type List struct {
	Contacts []Contact
	Columns  []string
}

// Selected pairs a contact with its original row index so status updates
// land on the right row.
type Selected struct {
	Index   int
	Contact Contact
}

// FilterOptions controls which rows qualify for sending.
type FilterOptions struct {
	// FromRow skips rows with a lower zero-based index.
	FromRow int
	// Max caps how many contacts are selected; 0 means unlimited.
	Max int
}

// Store reads and writes the contact CSV file.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore constructs a Store for the contact file at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load parses the contact file. It fails with ErrFormat when the header is
// missing or lacks any required column.
func (s *Store) Load() (*List, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("contacts: open %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty, expected header %s", ErrFormat, strings.Join(RequiredColumns, ","))
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrFormat, strings.Join(missing, ", "))
	}

	list := &List{Columns: append([]string(nil), header...)}
	for _, record := range records[1:] {
		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		contact := Contact{
			Email:       strings.TrimSpace(cell("email")),
			HotelName:   cell("hotel_name"),
			City:        cell("city"),
			ContactName: strings.TrimSpace(cell("contact_name")),
			Notes:       cell("notes"),
			Status:      NormalizeStatus(cell("status")),
			SentAt:      cell("sent_at"),
		}

		for i, col := range header {
			name := strings.TrimSpace(col)
			if isRequiredColumn(name) {
				continue
			}
			if contact.extra == nil {
				contact.extra = make(map[string]string)
			}
			if i < len(record) {
				contact.extra[name] = record[i]
			} else {
				contact.extra[name] = ""
			}
		}

		list.Contacts = append(list.Contacts, contact)
	}

	s.logger.Debug().Int("contacts", len(list.Contacts)).Str("path", s.path).Msg("contacts: loaded")
	return list, nil
}

// Persist rewrites the full contact file, preserving the original column
// order and any columns the tool does not recognize. Callers only invoke
// it when at least one contact changed status this run.
func (s *Store) Persist(list *List) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("contacts: rewrite %s: %w", s.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(list.Columns); err != nil {
		return fmt.Errorf("contacts: write header: %w", err)
	}

	for i := range list.Contacts {
		record := make([]string, len(list.Columns))
		for j, col := range list.Columns {
			record[j] = list.Contacts[i].columnValue(strings.TrimSpace(col))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("contacts: write row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("contacts: flush: %w", err)
	}
	return f.Close()
}

// Filter selects the contacts due for a send in original order. Rows below
// FromRow and rows already marked SENT or SKIP are skipped silently; rows
// failing email validation are returned in invalid so the caller can log
// them. Selection stops once Max contacts are collected.
func Filter(ctx context.Context, list *List, opts FilterOptions, validator *util.EmailValidator) (selected, invalid []Selected) {
	for idx, contact := range list.Contacts {
		if idx < opts.FromRow {
			continue
		}

		switch contact.Status {
		case StatusSent, StatusSkip:
			continue
		}

		if err := validator.Validate(ctx, contact.Email); err != nil {
			invalid = append(invalid, Selected{Index: idx, Contact: contact})
			continue
		}

		selected = append(selected, Selected{Index: idx, Contact: contact})
		if opts.Max > 0 && len(selected) >= opts.Max {
			break
		}
	}
	return selected, invalid
}

func isRequiredColumn(name string) bool {
	for _, col := range RequiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

func (c *Contact) columnValue(col string) string {
	switch col {
	case "email":
		return c.Email
	case "hotel_name":
		return c.HotelName
	case "city":
		return c.City
	case "contact_name":
		return c.ContactName
	case "notes":
		return c.Notes
	case "status":
		return string(c.Status)
	case "sent_at":
		return c.SentAt
	default:
		return c.extra[col]
	}
}
