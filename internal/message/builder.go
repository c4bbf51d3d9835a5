// Package message composes the immutable outbound email passed to the
// delivery engine.
package message

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Message is one fully composed email. It is built fresh per contact and
// never mutated after construction.
type Message struct {
	MessageID      string
	SenderName     string
	SenderEmail    string
	ToEmail        string
	ToName         string
	Subject        string
	HTMLBody       string
	TextBody       string
	AttachmentName string
	Attachment     []byte
}

// BuildInput carries the rendered content and addressing for one message.
// ToName must be the real contact name or empty: when a generic greeting
// fallback was substituted into the body, the caller passes ToName empty
// so the raw address is used in the To header instead of a visibly generic
// display name.
type BuildInput struct {
	SenderName     string
	SenderEmail    string
	ToEmail        string
	ToName         string
	Subject        string
	HTMLBody       string
	AttachmentPath string
}

// TextConverter derives the plain text alternative from an HTML body.
type TextConverter func(html string) (string, error)

// Builder assembles Messages. The plain text alternative is always
// generated through the configured converter.
type Builder struct {
	textify TextConverter
	logger  zerolog.Logger
	newID   func() string
}

// Option customises builder behaviour.
type Option func(*Builder)

// WithMessageID swaps the Message-ID generator, mainly for tests.
func WithMessageID(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// NewBuilder constructs a Builder using the supplied HTML to text
// converter.
func NewBuilder(textify TextConverter, logger zerolog.Logger, opts ...Option) (*Builder, error) {
	if textify == nil {
		return nil, errors.New("message builder: text converter is required")
	}

	b := &Builder{
		textify: textify,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Build composes a message from rendered content. A nonexistent attachment
// path is silently omitted rather than treated as an error; whether the
// operator pointed at a missing file is checked once at startup, not per
// contact.
func (b *Builder) Build(in BuildInput) (*Message, error) {
	if strings.TrimSpace(in.ToEmail) == "" {
		return nil, errors.New("message builder: recipient email is required")
	}
	if strings.TrimSpace(in.SenderEmail) == "" {
		return nil, errors.New("message builder: sender email is required")
	}

	text, err := b.textify(in.HTMLBody)
	if err != nil {
		return nil, fmt.Errorf("message builder: derive plain text: %w", err)
	}

	msg := &Message{
		MessageID:   b.newID(),
		SenderName:  in.SenderName,
		SenderEmail: in.SenderEmail,
		ToEmail:     in.ToEmail,
		ToName:      strings.TrimSpace(in.ToName),
		Subject:     in.Subject,
		HTMLBody:    in.HTMLBody,
		TextBody:    text,
	}

	if in.AttachmentPath != "" {
		data, err := os.ReadFile(in.AttachmentPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			b.logger.Debug().Str("path", in.AttachmentPath).Msg("message builder: attachment missing, omitted")
		case err != nil:
			return nil, fmt.Errorf("message builder: read attachment: %w", err)
		default:
			msg.Attachment = data
			msg.AttachmentName = filepath.Base(in.AttachmentPath)
		}
	}

	return msg, nil
}
