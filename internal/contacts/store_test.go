package contacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/mailmerge/internal/util"
)

func writeContactFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func syntaxValidator() *util.EmailValidator {
	return util.NewEmailValidator(util.PolicySyntax)
}

func TestLoadRequiresColumns(t *testing.T) {
	path := writeContactFile(t, "email,hotel_name,city\na@b.com,Hotel,Roma\n")

	_, err := NewStore(path, zerolog.Nop()).Load()
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	for _, col := range []string{"contact_name", "notes", "status", "sent_at"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("expected error to name missing column %q: %v", col, err)
		}
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeContactFile(t, "")
	if _, err := NewStore(path, zerolog.Nop()).Load(); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error for empty file, got %v", err)
	}
}

func TestLoadPreservesExtraColumns(t *testing.T) {
	path := writeContactFile(t,
		"email,hotel_name,city,contact_name,notes,status,sent_at,segment\n"+
			"a@good.com,Hotel Uno,Roma,Maria,,,,vip\n")

	list, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if len(list.Columns) != 8 || list.Columns[7] != "segment" {
		t.Fatalf("expected original header order preserved, got %v", list.Columns)
	}
	if v, ok := list.Contacts[0].Extra("segment"); !ok || v != "vip" {
		t.Fatalf("expected extra column to survive load, got %q ok=%v", v, ok)
	}
}

func TestFilterScenario(t *testing.T) {
	path := writeContactFile(t,
		"email,hotel_name,city,contact_name,notes,status,sent_at\n"+
			"a@good.com,Hotel Uno,Roma,Maria,,,\n"+
			"bad,Hotel Due,Milano,Luca,,,\n"+
			"b@good.com,Hotel Tre,Napoli,Anna,,SENT,2026-01-01 10:00:00\n")

	list, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	selected, invalid := Filter(context.Background(), list, FilterOptions{Max: 5}, syntaxValidator())

	if len(selected) != 1 || selected[0].Contact.Email != "a@good.com" {
		t.Fatalf("expected only a@good.com selected, got %+v", selected)
	}
	if selected[0].Index != 0 {
		t.Fatalf("expected original index 0, got %d", selected[0].Index)
	}
	if len(invalid) != 1 || invalid[0].Contact.Email != "bad" {
		t.Fatalf("expected bad email rejected, got %+v", invalid)
	}
}

func TestFilterSkipsTerminalStatusesCaseInsensitive(t *testing.T) {
	path := writeContactFile(t,
		"email,hotel_name,city,contact_name,notes,status,sent_at\n"+
			"a@good.com,H1,Roma,,,sent,\n"+
			"b@good.com,H2,Roma,,, skip ,\n"+
			"c@good.com,H3,Roma,,,DRY_RUN,\n")

	list, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	selected, invalid := Filter(context.Background(), list, FilterOptions{}, syntaxValidator())

	if len(invalid) != 0 {
		t.Fatalf("expected no invalid contacts, got %+v", invalid)
	}
	if len(selected) != 1 || selected[0].Contact.Email != "c@good.com" {
		t.Fatalf("expected only the DRY_RUN contact to qualify again, got %+v", selected)
	}
}

func TestFilterFromRowAndMax(t *testing.T) {
	path := writeContactFile(t,
		"email,hotel_name,city,contact_name,notes,status,sent_at\n"+
			"a@good.com,H1,Roma,,,,\n"+
			"b@good.com,H2,Roma,,,,\n"+
			"c@good.com,H3,Roma,,,,\n"+
			"d@good.com,H4,Roma,,,,\n")

	list, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	selected, _ := Filter(context.Background(), list, FilterOptions{FromRow: 1, Max: 2}, syntaxValidator())

	if len(selected) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(selected))
	}
	if selected[0].Contact.Email != "b@good.com" || selected[1].Contact.Email != "c@good.com" {
		t.Fatalf("unexpected selection window: %+v", selected)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := writeContactFile(t,
		"email,hotel_name,city,contact_name,notes,status,sent_at,segment\n"+
			"a@good.com,Hotel Uno,Roma,Maria,note text,,,vip\n"+
			"b@good.com,Hotel Due,Milano,,,,,standard\n")

	store := NewStore(path, zerolog.Nop())
	list, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	list.Contacts[0].MarkSent(false, "2026-08-25 10:00:00")

	if err := store.Persist(list); err != nil {
		t.Fatalf("unexpected persist error: %v", err)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	if reloaded.Contacts[0].Status != StatusSent || reloaded.Contacts[0].SentAt != "2026-08-25 10:00:00" {
		t.Fatalf("expected status mutation to persist, got %+v", reloaded.Contacts[0])
	}
	if v, _ := reloaded.Contacts[0].Extra("segment"); v != "vip" {
		t.Fatalf("expected extra column preserved through rewrite, got %q", v)
	}
	if reloaded.Contacts[1].Email != "b@good.com" || reloaded.Contacts[1].Status != StatusUnset {
		t.Fatalf("expected untouched row to survive rewrite, got %+v", reloaded.Contacts[1])
	}
	if len(reloaded.Columns) != 8 {
		t.Fatalf("expected column order preserved, got %v", reloaded.Columns)
	}
}

func TestMarkSentDryRun(t *testing.T) {
	c := Contact{Email: "a@good.com"}
	c.MarkSent(true, "2026-08-25 10:00:00")
	if c.Status != StatusDryRun || c.SentAt != "" {
		t.Fatalf("expected DRY_RUN without timestamp, got %+v", c)
	}
}
