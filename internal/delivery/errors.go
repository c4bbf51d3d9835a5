package delivery

import (
	"crypto/tls"
	"errors"
	"net"
	"net/textproto"

	"github.com/wneessen/go-mail"
)

// Kind is the closed set of delivery failure classifications. The retry
// policy and the outbox log both branch on the tag, never on error text.
type Kind int

const (
	// KindAuth covers SMTP authentication rejections.
	KindAuth Kind = iota
	// KindRecipientRejected covers RCPT TO refusals and bad-address codes.
	KindRecipientRejected
	// KindSenderRejected covers MAIL FROM refusals.
	KindSenderRejected
	// KindTLS covers handshake and certificate verification failures.
	KindTLS
	// KindDNS covers relay hostname resolution failures.
	KindDNS
	// KindConnection covers dial, reset and timeout failures.
	KindConnection
	// KindProtocol is the catch-all for other SMTP level failures.
	KindProtocol
)

// String returns the human readable classification prefix used in outcome
// details and log entries.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "SMTP authentication error"
	case KindRecipientRejected:
		return "Recipient rejected"
	case KindSenderRejected:
		return "Sender rejected"
	case KindTLS:
		return "TLS error"
	case KindDNS:
		return "DNS resolution error"
	case KindConnection:
		return "Connection error"
	default:
		return "SMTP error"
	}
}

// Permanent reports whether retrying cannot help. Authentication and
// address rejections fail the same way every time; everything else is
// worth another attempt.
func (k Kind) Permanent() bool {
	switch k {
	case KindAuth, KindRecipientRejected, KindSenderRejected:
		return true
	default:
		return false
	}
}

// Error is a classified transport failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with a classification.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Classify maps a transport error onto the closed Kind set by inspecting
// its typed causes. Errors already carrying a classification pass through
// unchanged, so transports and test stubs may pre-classify.
func Classify(err error) *Error {
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrSMTPRcptTo:
			return Wrap(KindRecipientRejected, err)
		case mail.ErrSMTPMailFrom:
			return Wrap(KindSenderRejected, err)
		}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535, 538:
			return Wrap(KindAuth, err)
		case 550, 551, 553:
			return Wrap(KindRecipientRejected, err)
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Wrap(KindDNS, err)
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return Wrap(KindTLS, err)
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return Wrap(KindTLS, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Wrap(KindConnection, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(KindConnection, err)
	}

	return Wrap(KindProtocol, err)
}
