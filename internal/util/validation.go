package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidEmail is returned when an address fails the syntax check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrDomainNotFound is returned when the address domain does not resolve.
	ErrDomainNotFound = errors.New("email domain does not resolve")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Policy selects how strictly email addresses are validated before a
// contact is accepted into the send set.
type Policy int

const (
	// PolicySyntax checks the address shape only.
	PolicySyntax Policy = iota
	// PolicySyntaxAndDomain additionally requires the domain to resolve.
	// This rejects recipients whose DNS is temporarily unreachable, which
	// is why it is a policy and not a constant.
	PolicySyntaxAndDomain
)

// Resolver is the subset of net.Resolver the validator relies on.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// EmailValidator checks recipient addresses according to the configured
// policy. The zero value is not usable; construct with NewEmailValidator.
type EmailValidator struct {
	policy        Policy
	resolver      Resolver
	lookupTimeout time.Duration
}

// ValidatorOption customises an EmailValidator.
type ValidatorOption func(*EmailValidator)

// WithResolver swaps the DNS resolver, mainly for tests.
func WithResolver(r Resolver) ValidatorOption {
	return func(v *EmailValidator) {
		if r != nil {
			v.resolver = r
		}
	}
}

// WithLookupTimeout bounds each domain lookup so a single slow domain
// cannot stall the whole run.
func WithLookupTimeout(d time.Duration) ValidatorOption {
	return func(v *EmailValidator) {
		if d > 0 {
			v.lookupTimeout = d
		}
	}
}

// NewEmailValidator constructs a validator for the supplied policy.
func NewEmailValidator(policy Policy, opts ...ValidatorOption) *EmailValidator {
	v := &EmailValidator{
		policy:        policy,
		resolver:      net.DefaultResolver,
		lookupTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate reports whether the address is acceptable under the policy.
func (v *EmailValidator) Validate(ctx context.Context, email string) error {
	trimmed := strings.TrimSpace(email)
	if !emailPattern.MatchString(trimmed) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	if v.policy == PolicySyntax {
		return nil
	}

	domain := trimmed[strings.LastIndex(trimmed, "@")+1:]

	lookupCtx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()

	if _, err := v.resolver.LookupHost(lookupCtx, domain); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDomainNotFound, domain, err)
	}
	return nil
}
