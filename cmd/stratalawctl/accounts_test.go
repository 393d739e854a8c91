package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/authutil"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.uber.org/zap"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"wanjiru@example.com", false},
		{"  wanjiru@example.com ", false},
		{"", true},
		{"not-an-email", true},
	}
	for _, tt := range tests {
		if err := validateEmail(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateEmail(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
	if validateName("  ") == nil {
		t.Error("validateName should reject blank names")
	}
}

func newCtl(t *testing.T) (*ctl, *auditstore.Store, *bytes.Buffer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	audits := auditstore.New(db)
	var out bytes.Buffer
	return &ctl{
		users: userstore.New(db),
		audit: auditlog.New(audits, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB, Admin: auditlog.DestDB}),
		out:   &out,
	}, audits, &out
}

func TestCtl_CreateAndList(t *testing.T) {
	c, audits, out := newCtl(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := c.create(ctx, "Amina Njoroge", "Amina@Example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("create() error = %v", err)
	}
	if u.Email != "amina@example.com" || u.Role != "admin" || u.Status != status.Active {
		t.Errorf("create() = %+v", u)
	}
	if u.PasswordHash == nil || !authutil.CheckPassword("correct-horse-battery", *u.PasswordHash) {
		t.Error("password hash does not match")
	}

	if _, err := c.create(ctx, "Dup", "amina@example.com", "correct-horse-battery"); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("duplicate create err = %v", err)
	}
	if _, err := c.create(ctx, "Short", "short@example.com", "short"); !errors.Is(err, authutil.ErrPasswordTooShort) {
		t.Errorf("weak password err = %v", err)
	}

	n, err := audits.Count(ctx, auditstore.QueryFilter{EventType: auditstore.EventUserCreated})
	if err != nil || n != 1 {
		t.Errorf("user_created events = %d, %v; want 1", n, err)
	}

	if err := c.listUsers(ctx); err != nil {
		t.Fatalf("listUsers() error = %v", err)
	}
	if !strings.Contains(out.String(), "amina@example.com") || !strings.Contains(out.String(), "never") {
		t.Errorf("listUsers() output = %q", out.String())
	}
}

func TestCtl_UpdateStatusKeepsLastAdmin(t *testing.T) {
	c, _, _ := newCtl(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := c.create(ctx, "First", "first@example.com", "correct-horse-battery"); err != nil {
		t.Fatalf("create() error = %v", err)
	}
	if err := c.updateStatus(ctx, "first@example.com", status.Disabled); !errors.Is(err, errLastAdmin) {
		t.Fatalf("disable last admin err = %v, want errLastAdmin", err)
	}

	if _, err := c.create(ctx, "Second", "second@example.com", "correct-horse-battery"); err != nil {
		t.Fatalf("create() error = %v", err)
	}
	if err := c.updateStatus(ctx, "first@example.com", status.Disabled); err != nil {
		t.Fatalf("updateStatus() error = %v", err)
	}
	u, _ := c.users.GetByEmail(ctx, "first@example.com")
	if u.Status != status.Disabled {
		t.Errorf("Status = %q", u.Status)
	}

	if err := c.updateStatus(ctx, "nobody@example.com", status.Active); !errors.Is(err, storeutil.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestCtl_UpdatePassword(t *testing.T) {
	c, _, _ := newCtl(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := c.create(ctx, "Amina", "amina@example.com", "correct-horse-battery"); err != nil {
		t.Fatalf("create() error = %v", err)
	}
	if err := c.updatePassword(ctx, "amina@example.com", "another-long-secret"); err != nil {
		t.Fatalf("updatePassword() error = %v", err)
	}
	u, _ := c.users.GetByEmail(ctx, "amina@example.com")
	if !authutil.CheckPassword("another-long-secret", *u.PasswordHash) {
		t.Error("new password not stored")
	}
	if err := c.updatePassword(ctx, "amina@example.com", "password123"); err == nil {
		t.Error("common password should be rejected")
	}
}
