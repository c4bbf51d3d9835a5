package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/mailmerge/internal/config"
	"github.com/example/mailmerge/internal/contacts"
	"github.com/example/mailmerge/internal/delivery"
	"github.com/example/mailmerge/internal/htmltext"
	"github.com/example/mailmerge/internal/logger"
	"github.com/example/mailmerge/internal/merge"
	"github.com/example/mailmerge/internal/message"
	"github.com/example/mailmerge/internal/outbox"
	"github.com/example/mailmerge/internal/templates"
	"github.com/example/mailmerge/internal/ui"
	"github.com/example/mailmerge/internal/util"
)

func main() {
	var (
		csvPath        = flag.String("csv", "", "path to contacts CSV file (required)")
		subjectPath    = flag.String("subject", "", "path to subject template file (required)")
		htmlPath       = flag.String("html", "", "path to HTML body template file (required)")
		attachmentPath = flag.String("attachment", "", "path to a file to attach to every email")
		envPath        = flag.String("env", ".env", "path to .env file with SMTP credentials")
		sleepSeconds   = flag.Int("sleep", 3, "seconds to wait between emails")
		dryRun         = flag.Bool("dry-run", false, "simulate the run without sending emails")
		maxSend        = flag.Int("max", 0, "maximum number of emails to send (0 = unlimited)")
		fromRow        = flag.Int("from-row", 0, "start from row N of the contact list (0-indexed)")
		updateContacts = flag.Bool("update-contacts", false, "write status and sent_at back to the contacts CSV")
		logPath        = flag.String("log", "outbox_log.csv", "path to the delivery log file")
	)
	flag.Parse()

	printer := ui.NewPrinter(os.Stdout)

	if *csvPath == "" || *subjectPath == "" || *htmlPath == "" {
		printer.Errorf("Error: --csv, --subject and --html are required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*envPath)
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "mailmerge").Logger()

	printer.Banner(*dryRun)
	printer.Infof("Loading configuration...")

	subjectTemplate, err := templates.LoadFile(*subjectPath)
	if err != nil {
		fail("subject template", err)
	}
	htmlTemplate, err := templates.LoadFile(*htmlPath)
	if err != nil {
		fail("html template", err)
	}

	// A missing attachment per contact is tolerated at build time; the
	// operator pointing at a file that does not exist at all is not.
	if *attachmentPath != "" {
		if _, err := os.Stat(*attachmentPath); err != nil {
			fail("attachment", fmt.Errorf("not found at %s", *attachmentPath))
		}
	}

	policy := util.PolicySyntax
	if cfg.Merge.VerifyDomains {
		policy = util.PolicySyntaxAndDomain
	}
	validator := util.NewEmailValidator(policy)

	store := contacts.NewStore(*csvPath, log.With().Str("component", "contact-store").Logger())

	sender, err := delivery.NewSMTPSender(cfg.SMTP, log.With().Str("component", "smtp-sender").Logger())
	if err != nil {
		fail("smtp sender", err)
	}

	engine, err := delivery.NewEngine(sender, log.With().Str("component", "delivery-engine").Logger())
	if err != nil {
		fail("delivery engine", err)
	}

	builder, err := message.NewBuilder(htmltext.FromHTML, log.With().Str("component", "message-builder").Logger())
	if err != nil {
		fail("message builder", err)
	}

	orchestrator, err := merge.New(merge.Config{
		SubjectTemplate:  subjectTemplate,
		HTMLTemplate:     htmlTemplate,
		AttachmentPath:   *attachmentPath,
		DryRun:           *dryRun,
		FromRow:          *fromRow,
		Max:              *maxSend,
		Pace:             time.Duration(*sleepSeconds) * time.Second,
		UpdateContacts:   *updateContacts,
		SenderName:       cfg.Sender.Name,
		SenderEmail:      cfg.Sender.Email,
		GreetingFallback: cfg.Merge.GreetingFallback,
	}, merge.Dependencies{
		Store:     store,
		Validator: validator,
		Builder:   builder,
		Engine:    engine,
		Outbox:    outbox.New(*logPath),
		Printer:   printer,
		Logger:    log.With().Str("component", "orchestrator").Logger(),
	})
	if err != nil {
		fail("orchestrator", err)
	}

	stats, err := orchestrator.Run(ctx)
	switch {
	case errors.Is(err, merge.ErrNoContacts):
		printer.Warnf("\nNo contacts to send emails to")
		os.Exit(1)
	case err != nil:
		fail("run", err)
	}

	// Individual send failures are surfaced in the summary and the log,
	// not in the exit status.
	printer.Summary(stats.Sent, stats.Failed, *logPath, *updateContacts && stats.Sent > 0)
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
