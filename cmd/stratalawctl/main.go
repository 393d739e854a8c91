// cmd/stratalawctl/main.go

// Command stratalawctl manages admin accounts directly against MongoDB.
// It reads the same configuration as the server (STRATALAW_* env vars,
// config file, flags).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dalemusser/stratalaw/internal/app/bootstrap"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/indexes"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "stratalawctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	_, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, wafflemongo.DefaultPoolConfig())
	cancel()
	if err != nil {
		return fmt.Errorf("connect MongoDB: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(appCfg.MongoDatabase)
	if err := indexes.EnsureAll(context.Background(), db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	c := &ctl{
		users: userstore.New(db),
		audit: auditlog.New(auditstore.New(db), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
		out: os.Stdout,
	}
	return c.menu(context.Background(), db)
}

func (c *ctl) menu(ctx context.Context, db *mongo.Database) error {
	var action string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("stratalaw accounts ("+db.Name()+")").
				Options(
					huh.NewOption("Create admin", actionCreate),
					huh.NewOption("List users", actionList),
					huh.NewOption("Enable or disable a user", actionStatus),
					huh.NewOption("Reset a password", actionPassword),
				).
				Value(&action),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	switch action {
	case actionCreate:
		return c.createAdmin(ctx)
	case actionList:
		return c.listUsers(ctx)
	case actionStatus:
		return c.setStatus(ctx)
	case actionPassword:
		return c.resetPassword(ctx)
	}
	return fmt.Errorf("unknown action %q", action)
}
