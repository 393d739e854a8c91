// cmd/stratalawctl/accounts.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/authutil"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/domain/models"
)

const (
	actionCreate   = "create"
	actionList     = "list"
	actionStatus   = "status"
	actionPassword = "password"
)

var errLastAdmin = errors.New("refusing to disable the last active admin")

type ctl struct {
	users *userstore.Store
	audit *auditlog.Logger
	out   io.Writer
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("not a valid email address")
	}
	return nil
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func (c *ctl) createAdmin(ctx context.Context) error {
	var name, email, password, confirm string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&name).Validate(validateName),
			huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				Description(authutil.PasswordRules()).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(authutil.ValidatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	u, err := c.create(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created admin %s (%s)\n", u.Email, u.ID.Hex())
	return nil
}

// create adds an active password admin and records the audit event.
func (c *ctl) create(ctx context.Context, name, email, password string) (models.User, error) {
	if err := authutil.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := c.users.Create(ctx, userstore.CreateInput{
		FullName:     name,
		Email:        email,
		AuthMethod:   models.AuthMethodPassword,
		Role:         models.RoleAdmin,
		Status:       status.Active,
		PasswordHash: &hash,
	})
	if err != nil {
		return models.User{}, err
	}
	c.audit.UserCreated(ctx, u.ID, u.Role, "cli")
	return u, nil
}

func (c *ctl) listUsers(ctx context.Context) error {
	users, err := c.users.ListAll(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tSTATUS\tAUTH\tLAST LOGIN")
	for _, u := range users {
		last := "never"
		if u.LastLoginAt != nil {
			last = u.LastLoginAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.Email, u.FullName, u.Role, u.Status, u.AuthMethod, last)
	}
	return tw.Flush()
}

func (c *ctl) setStatus(ctx context.Context) error {
	var email, next string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("Active", status.Active),
					huh.NewOption("Disabled", status.Disabled),
				).
				Value(&next),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := c.updateStatus(ctx, email, next); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s is now %s\n", strings.TrimSpace(email), next)
	return nil
}

// updateStatus changes an account's status. The last active admin cannot
// be disabled.
func (c *ctl) updateStatus(ctx context.Context, email, next string) error {
	u, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	if next == status.Disabled && u.Role == models.RoleAdmin && u.Status == status.Active {
		n, err := c.users.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return errLastAdmin
		}
	}
	return c.users.Update(ctx, u.ID, userstore.UpdateInput{Status: &next})
}

func (c *ctl) resetPassword(ctx context.Context) error {
	var email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
			huh.NewInput().
				Title("New password").
				Description(authutil.PasswordRules()).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(authutil.ValidatePassword),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := c.updatePassword(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "password updated for %s\n", strings.TrimSpace(email))
	return nil
}

// updatePassword sets a new password and switches the account to password
// sign-in.
func (c *ctl) updatePassword(ctx context.Context, email, password string) error {
	if err := authutil.ValidatePassword(password); err != nil {
		return err
	}
	u, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	method := models.AuthMethodPassword
	return c.users.Update(ctx, u.ID, userstore.UpdateInput{PasswordHash: &hash, AuthMethod: &method})
}
