// Package merge drives the mail merge run: contact selection, per-contact
// rendering and message construction, retried delivery, outcome logging,
// pacing, and the final contact file update.
package merge

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/mailmerge/internal/contacts"
	"github.com/example/mailmerge/internal/delivery"
	"github.com/example/mailmerge/internal/message"
	"github.com/example/mailmerge/internal/outbox"
	"github.com/example/mailmerge/internal/templates"
	"github.com/example/mailmerge/internal/ui"
	"github.com/example/mailmerge/internal/util"
)

// ErrNoContacts is returned when filtering leaves nothing to send.
var ErrNoContacts = errors.New("no contacts to send emails to")

const invalidEmailInfo = "Invalid email format"

// Stats counts outcomes for one invocation.
type Stats struct {
	Sent    int
	Failed  int
	Skipped int
}

// Builder composes one outbound message from rendered content.
type Builder interface {
	Build(in message.BuildInput) (*message.Message, error)
}

// Deliverer sends one composed message applying the retry policy.
type Deliverer interface {
	SendWithRetry(ctx context.Context, msg *message.Message, dryRun bool) delivery.Outcome
}

// Logbook appends delivery outcomes to the append-only log.
type Logbook interface {
	Append(entry outbox.Entry) error
}

// Config holds the per-invocation run settings.
type Config struct {
	SubjectTemplate  string
	HTMLTemplate     string
	AttachmentPath   string
	DryRun           bool
	FromRow          int
	Max              int
	Pace             time.Duration
	UpdateContacts   bool
	SenderName       string
	SenderEmail      string
	GreetingFallback string
}

// Dependencies collects the collaborators the orchestrator drives.
type Dependencies struct {
	Store     *contacts.Store
	Validator *util.EmailValidator
	Builder   Builder
	Engine    Deliverer
	Outbox    Logbook
	Printer   *ui.Printer
	Logger    zerolog.Logger
	Now       func() time.Time
	Wait      func(ctx context.Context, d time.Duration) bool
}

// Orchestrator runs the merge. Processing is strictly sequential: one
// contact is fully rendered, sent (with retries) and logged before the
// next begins, which is what throttles the outbound rate.
type Orchestrator struct {
	cfg       Config
	store     *contacts.Store
	validator *util.EmailValidator
	builder   Builder
	engine    Deliverer
	outbox    Logbook
	printer   *ui.Printer
	logger    zerolog.Logger
	now       func() time.Time
	wait      func(ctx context.Context, d time.Duration) bool
}

// New constructs an Orchestrator, validating that every collaborator is
// present.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("merge: contact store dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("merge: email validator dependency is required")
	}
	if deps.Builder == nil {
		return nil, errors.New("merge: message builder dependency is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("merge: delivery engine dependency is required")
	}
	if deps.Outbox == nil {
		return nil, errors.New("merge: outbox dependency is required")
	}

	o := &Orchestrator{
		cfg:       cfg,
		store:     deps.Store,
		validator: deps.Validator,
		builder:   deps.Builder,
		engine:    deps.Engine,
		outbox:    deps.Outbox,
		printer:   deps.Printer,
		logger:    deps.Logger,
		now:       deps.Now,
		wait:      deps.Wait,
	}
	if o.printer == nil {
		o.printer = ui.NewPrinter(io.Discard)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.wait == nil {
		o.wait = sleep
	}
	return o, nil
}

// Run executes the full merge and returns the run statistics. Per-contact
// delivery failures do not fail the run; only a load error or an empty
// selection does.
func (o *Orchestrator) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	list, err := o.store.Load()
	if err != nil {
		return stats, err
	}
	o.printer.Successf("Loaded %d contacts from CSV", len(list.Contacts))

	for idx, contact := range list.Contacts {
		if idx < o.cfg.FromRow {
			continue
		}
		switch contact.Status {
		case contacts.StatusSent, contacts.StatusSkip:
			stats.Skipped++
			o.printer.Warnf("Skipping %s - Status: %s", contact.Email, contact.Status)
		}
	}

	selected, invalid := contacts.Filter(ctx, list, contacts.FilterOptions{FromRow: o.cfg.FromRow, Max: o.cfg.Max}, o.validator)

	for _, rejected := range invalid {
		o.printer.Errorf("Invalid email format: %s", rejected.Contact.Email)
		o.appendLog(rejected.Contact, rejected.Contact.ContactName, string(contacts.StatusError), invalidEmailInfo)
	}

	if len(selected) == 0 {
		return stats, ErrNoContacts
	}

	o.printer.Infof("\nReady to send %d emails", len(selected))

	// Fixed for the whole run.
	today := o.now().Format("02/01/2006")

	for i, sel := range selected {
		contact := sel.Contact

		// The fallback greeting feeds the template context only; the To
		// header gets the real name or none at all.
		templateName := contact.ContactName
		displayName := contact.ContactName
		if templateName == "" {
			templateName = o.cfg.GreetingFallback
			displayName = ""
		}

		o.printer.Contact(i+1, len(selected), contact.HotelName, contact.City, contact.Email)

		renderCtx := map[string]string{
			"contact_name": templateName,
			"hotel_name":   contact.HotelName,
			"city":         contact.City,
			"sender_name":  o.cfg.SenderName,
			"today":        today,
		}

		subject := templates.Render(o.cfg.SubjectTemplate, renderCtx)
		htmlBody := templates.Render(o.cfg.HTMLTemplate, renderCtx)

		msg, err := o.builder.Build(message.BuildInput{
			SenderName:     o.cfg.SenderName,
			SenderEmail:    o.cfg.SenderEmail,
			ToEmail:        contact.Email,
			ToName:         displayName,
			Subject:        subject,
			HTMLBody:       htmlBody,
			AttachmentPath: o.cfg.AttachmentPath,
		})
		if err != nil {
			stats.Failed++
			o.printer.Errorf("    Failed: %v", err)
			o.logger.Error().Str("email", contact.Email).Err(err).Msg("merge: message build failed")
			o.appendLog(contact, templateName, string(contacts.StatusError), err.Error())
		} else {
			outcome := o.engine.SendWithRetry(ctx, msg, o.cfg.DryRun)
			if outcome.Success {
				stats.Sent++
				o.printer.Successf("    %s", outcome.Detail)

				list.Contacts[sel.Index].MarkSent(o.cfg.DryRun, o.now().Format("2006-01-02 15:04:05"))

				status := contacts.StatusSent
				if o.cfg.DryRun {
					status = contacts.StatusDryRun
				}
				o.appendLog(contact, templateName, string(status), outcome.Detail)
			} else {
				stats.Failed++
				o.printer.Errorf("    Failed: %s", outcome.Detail)
				o.appendLog(contact, templateName, string(contacts.StatusError), outcome.Detail)
			}
		}

		if ctx.Err() != nil {
			o.logger.Warn().Msg("merge: run cancelled, stopping before next contact")
			break
		}

		// Pace between sends, but not after the last one.
		if i < len(selected)-1 && o.cfg.Pace > 0 {
			if !o.wait(ctx, o.cfg.Pace) {
				o.logger.Warn().Msg("merge: run cancelled during pacing delay")
				break
			}
		}
	}

	if o.cfg.UpdateContacts && stats.Sent > 0 {
		o.printer.Infof("\nUpdating contacts CSV...")
		if err := o.store.Persist(list); err != nil {
			o.logger.Error().Err(err).Msg("merge: failed to persist contact statuses")
			o.printer.Errorf("Failed to update contacts CSV: %v", err)
		} else {
			o.printer.Successf("CSV updated")
		}
	}

	return stats, nil
}

func (o *Orchestrator) appendLog(contact contacts.Contact, contactName, status, info string) {
	entry := outbox.Entry{
		Email:       contact.Email,
		HotelName:   contact.HotelName,
		City:        contact.City,
		ContactName: contactName,
		Status:      status,
		Info:        info,
		Timestamp:   o.now().Format(time.RFC3339),
	}
	if err := o.outbox.Append(entry); err != nil {
		o.logger.Error().
			Str("email", contact.Email).
			Err(err).
			Msg("merge: failed to append outbox log entry")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
