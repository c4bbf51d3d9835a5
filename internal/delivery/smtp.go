package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/example/mailmerge/internal/config"
	"github.com/example/mailmerge/internal/message"
)

// SMTPSender delivers composed messages over a real SMTP relay. Each send
// dials its own session; for a few hundred paced messages a persistent
// connection buys nothing and a fresh dial keeps retry semantics simple.
type SMTPSender struct {
	host      string
	port      int
	user      string
	pass      string
	ssl       bool
	timeout   time.Duration
	tlsConfig *tls.Config
	logger    zerolog.Logger
}

// SMTPOption configures the SMTP sender.
type SMTPOption func(*SMTPSender)

// WithTLSConfig overrides the TLS configuration used for both implicit TLS
// and STARTTLS sessions.
func WithTLSConfig(cfg *tls.Config) SMTPOption {
	return func(s *SMTPSender) {
		s.tlsConfig = cfg
	}
}

// WithDialTimeout bounds connection establishment and SMTP exchanges.
func WithDialTimeout(d time.Duration) SMTPOption {
	return func(s *SMTPSender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSMTPSender constructs a sender from relay credentials. SSL selects
// implicit TLS (typically port 465); otherwise the session is upgraded via
// STARTTLS before authenticating (typically port 587).
func NewSMTPSender(cfg config.SMTPConfig, logger zerolog.Logger, opts ...SMTPOption) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp sender: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp sender: invalid port %d", cfg.Port)
	}

	s := &SMTPSender{
		host:    cfg.Host,
		port:    cfg.Port,
		user:    cfg.User,
		pass:    cfg.Pass,
		ssl:     cfg.SSL,
		timeout: 30 * time.Second,
		logger:  logger,
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// Send transmits one composed message. Returned errors are classified via
// Classify so the engine can decide whether to retry.
func (s *SMTPSender) Send(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return Wrap(KindProtocol, errors.New("smtp sender: message is required"))
	}

	m, err := compose(msg)
	if err != nil {
		return Wrap(KindProtocol, err)
	}

	clientOpts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(s.timeout),
		mail.WithTLSConfig(s.tlsConfig),
	}
	if s.ssl {
		clientOpts = append(clientOpts, mail.WithSSL())
	} else {
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if s.user != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.user),
			mail.WithPassword(s.pass),
		)
	}

	client, err := mail.NewClient(s.host, clientOpts...)
	if err != nil {
		return Classify(err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Debug().
			Str("message_id", msg.MessageID).
			Str("to", msg.ToEmail).
			Err(err).
			Msg("smtp sender: delivery failed")
		return Classify(err)
	}

	s.logger.Debug().
		Str("message_id", msg.MessageID).
		Str("to", msg.ToEmail).
		Msg("smtp sender: message accepted by relay")
	return nil
}

func compose(msg *message.Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if msg.SenderName != "" {
		if err := m.FromFormat(msg.SenderName, msg.SenderEmail); err != nil {
			return nil, fmt.Errorf("smtp sender: set from: %w", err)
		}
	} else if err := m.From(msg.SenderEmail); err != nil {
		return nil, fmt.Errorf("smtp sender: set from: %w", err)
	}

	// The display name is only set when a real contact name exists; a
	// generic greeting fallback never reaches the To header.
	if msg.ToName != "" {
		if err := m.AddToFormat(msg.ToName, msg.ToEmail); err != nil {
			return nil, fmt.Errorf("smtp sender: set to: %w", err)
		}
	} else if err := m.To(msg.ToEmail); err != nil {
		return nil, fmt.Errorf("smtp sender: set to: %w", err)
	}

	m.Subject(sanitizeHeaderValue(msg.Subject))
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	m.SetDate()
	if msg.MessageID != "" {
		m.SetMessageIDWithValue(msg.MessageID)
	}

	if len(msg.Attachment) > 0 {
		if err := m.AttachReader(msg.AttachmentName, bytes.NewReader(msg.Attachment)); err != nil {
			return nil, fmt.Errorf("smtp sender: attach %s: %w", msg.AttachmentName, err)
		}
	}

	return m, nil
}

func sanitizeHeaderValue(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}
