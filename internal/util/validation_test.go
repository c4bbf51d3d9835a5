package util

import (
	"context"
	"errors"
	"testing"
)

type resolverStub struct {
	hosts map[string]bool
	calls int
}

func (r *resolverStub) LookupHost(ctx context.Context, host string) ([]string, error) {
	r.calls++
	if r.hosts[host] {
		return []string{"192.0.2.1"}, nil
	}
	return nil, errors.New("no such host")
}

func TestValidateSyntaxOnly(t *testing.T) {
	v := NewEmailValidator(PolicySyntax)

	cases := []struct {
		email string
		ok    bool
	}{
		{"info@hotel-riviera.it", true},
		{"first.last+tag@example.co.uk", true},
		{"not-an-email", false},
		{"missing-domain@", false},
		{"@no-local.example.com", false},
		{"no-tld@example", false},
		{"", false},
	}

	for _, tc := range cases {
		err := v.Validate(context.Background(), tc.email)
		if tc.ok && err != nil {
			t.Errorf("expected %q to be valid: %v", tc.email, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("expected %q to be rejected", tc.email)
			} else if !errors.Is(err, ErrInvalidEmail) {
				t.Errorf("expected syntax error for %q, got %v", tc.email, err)
			}
		}
	}
}

func TestValidateDomainResolution(t *testing.T) {
	resolver := &resolverStub{hosts: map[string]bool{"good.com": true}}
	v := NewEmailValidator(PolicySyntaxAndDomain, WithResolver(resolver))

	if err := v.Validate(context.Background(), "a@good.com"); err != nil {
		t.Fatalf("expected resolvable domain to pass: %v", err)
	}

	err := v.Validate(context.Background(), "a@dead.invalid")
	if !errors.Is(err, ErrDomainNotFound) {
		t.Fatalf("expected domain resolution failure, got %v", err)
	}
}

func TestValidateSkipsLookupOnSyntaxFailure(t *testing.T) {
	resolver := &resolverStub{}
	v := NewEmailValidator(PolicySyntaxAndDomain, WithResolver(resolver))

	if err := v.Validate(context.Background(), "bad"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if resolver.calls != 0 {
		t.Fatalf("expected no DNS lookups for syntactically invalid address, got %d", resolver.calls)
	}
}
