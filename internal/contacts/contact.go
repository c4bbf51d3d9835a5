// Package contacts owns the recipient list: loading it from CSV,
// selecting who is due for a send, and writing delivery state back without
// disturbing columns the tool does not understand.
package contacts

import "strings"

// Status is the per-contact delivery state tracked in the contact file.
type Status string

const (
	StatusUnset  Status = ""
	StatusSent   Status = "SENT"
	StatusSkip   Status = "SKIP"
	StatusError  Status = "ERROR"
	StatusDryRun Status = "DRY_RUN"
)

// NormalizeStatus maps the raw CSV cell to a canonical Status. Matching is
// case insensitive and whitespace tolerant because the column is usually
// edited by hand.
func NormalizeStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

// Contact is one row of the contact file. Identity is the row position in
// the source list; rows are mutated in place after a send attempt and
// never deleted.
type Contact struct {
	Email       string
	HotelName   string
	City        string
	ContactName string
	Notes       string
	Status      Status
	SentAt      string

	// extra holds columns the tool does not interpret. They ride along
	// untouched so a rewrite is lossless.
	extra map[string]string
}

// MarkSent records a successful delivery. Dry runs are recorded as
// DRY_RUN without a sent_at timestamp; DRY_RUN is not a terminal status at
// filter time, so a later real run still picks the contact up.
func (c *Contact) MarkSent(dryRun bool, sentAt string) {
	if dryRun {
		c.Status = StatusDryRun
		return
	}
	c.Status = StatusSent
	c.SentAt = sentAt
}

// Extra returns the value of an unrecognized column, if present.
func (c *Contact) Extra(column string) (string, bool) {
	v, ok := c.extra[column]
	return v, ok
}
