// Package ui renders the operator-facing progress and summary output. The
// printer is stateless and writes to an explicit sink so tests (and quiet
// modes) can capture or discard it.
package ui

import (
	"io"
	"strings"

	"github.com/fatih/color"
)

const rule = 60

// Printer writes colored status lines to a single sink.
type Printer struct {
	w io.Writer

	banner  *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewPrinter constructs a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:       w,
		banner:  color.New(color.FgCyan, color.Bold),
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
}

// Banner prints the run header, with a dry-run warning when applicable.
func (p *Printer) Banner(dryRun bool) {
	line := strings.Repeat("=", rule)
	p.banner.Fprintln(p.w, "\n"+line)
	p.banner.Fprintln(p.w, "  MAIL MERGE - Hotel Contact System")
	p.banner.Fprintln(p.w, line+"\n")
	if dryRun {
		p.warn.Fprintf(p.w, "DRY RUN MODE - No emails will be sent\n\n")
	}
}

// Infof prints an informational progress line.
func (p *Printer) Infof(format string, args ...any) {
	p.info.Fprintf(p.w, format+"\n", args...)
}

// Successf prints a success line.
func (p *Printer) Successf(format string, args ...any) {
	p.success.Fprintf(p.w, format+"\n", args...)
}

// Warnf prints a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

// Errorf prints a failure line.
func (p *Printer) Errorf(format string, args ...any) {
	p.fail.Fprintf(p.w, format+"\n", args...)
}

// Contact prints the per-contact progress block.
func (p *Printer) Contact(position, total int, hotelName, city, email string) {
	p.banner.Fprintf(p.w, "\n[%d/%d] Processing %s (%s)\n", position, total, hotelName, city)
	p.banner.Fprintf(p.w, "    To: %s\n", email)
}

// Summary prints the end-of-run statistics block.
func (p *Printer) Summary(sent, failed int, logPath string, contactsUpdated bool) {
	line := strings.Repeat("=", rule)
	p.banner.Fprintln(p.w, "\n"+line)
	p.banner.Fprintln(p.w, "  SUMMARY")
	p.banner.Fprintln(p.w, line)
	p.success.Fprintf(p.w, "  Sent: %d\n", sent)
	if failed > 0 {
		p.fail.Fprintf(p.w, "  Failed: %d\n", failed)
	}
	p.info.Fprintf(p.w, "  Log saved to: %s\n", logPath)
	if contactsUpdated {
		p.info.Fprintln(p.w, "  Contacts CSV updated")
	}
	p.banner.Fprintln(p.w, line+"\n")
}
