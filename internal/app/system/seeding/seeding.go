// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	practicestore "github.com/dalemusser/stratalaw/internal/app/store/practice"
	settingsstore "github.com/dalemusser/stratalaw/internal/app/store/settings"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/authutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults is the content seeded on first start.
type Defaults struct {
	Settings []struct {
		Key         string `yaml:"key"`
		Value       any    `yaml:"value"`
		Description string `yaml:"description"`
	} `yaml:"settings"`
	PracticeAreas []struct {
		Icon        string               `yaml:"icon"`
		Title       models.LocalizedText `yaml:"title"`
		Description models.LocalizedText `yaml:"description"`
	} `yaml:"practice_areas"`
}

// LoadDefaults parses the embedded defaults.
func LoadDefaults() (Defaults, error) {
	return parseDefaults(defaultsYAML)
}

func parseDefaults(data []byte) (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults: %w", err)
	}
	for i, s := range d.Settings {
		if s.Key == "" || !models.IsValidSettingValue(s.Value) {
			return Defaults{}, fmt.Errorf("defaults: setting %d has an empty key or unsupported value", i)
		}
	}
	for i, a := range d.PracticeAreas {
		if !a.Title.HasEN() || !a.Description.HasEN() {
			return Defaults{}, fmt.Errorf("defaults: practice area %d is missing English text", i)
		}
	}
	return d, nil
}

// Options controls what SeedAll creates.
type Options struct {
	// Content seeds default settings and practice areas.
	Content bool

	// Admin account created when no user has AdminEmail. Empty email skips it.
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// SeedAll seeds default data that is not already present. It never
// overwrites existing records.
func SeedAll(ctx context.Context, db *mongo.Database, opts Options, logger *zap.Logger) error {
	if opts.Content {
		d, err := LoadDefaults()
		if err != nil {
			return err
		}
		if err := seedSettings(ctx, db, d, logger); err != nil {
			return err
		}
		if err := seedPracticeAreas(ctx, db, d, logger); err != nil {
			return err
		}
	}
	return seedAdmin(ctx, db, opts, logger)
}

func seedSettings(ctx context.Context, db *mongo.Database, d Defaults, logger *zap.Logger) error {
	store := settingsstore.New(db)
	for _, s := range d.Settings {
		inserted, err := store.InsertIfMissing(ctx, s.Key, s.Value, s.Description)
		if err != nil {
			logger.Error("failed to seed setting", zap.String("key", s.Key), zap.Error(err))
			return err
		}
		if inserted {
			logger.Info("seeded default setting", zap.String("key", s.Key))
		}
	}
	return nil
}

func seedPracticeAreas(ctx context.Context, db *mongo.Database, d Defaults, logger *zap.Logger) error {
	store := practicestore.New(db)
	for i, a := range d.PracticeAreas {
		exists, err := store.ExistsWithEnglishTitle(ctx, a.Title.EN)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := store.Create(ctx, practicestore.CreateInput{
			Title:       a.Title,
			Description: a.Description,
			Icon:        a.Icon,
			Order:       i + 1,
		}); err != nil {
			logger.Error("failed to seed practice area", zap.String("title", a.Title.EN), zap.Error(err))
			return err
		}
		logger.Info("seeded practice area", zap.String("title", a.Title.EN))
	}
	return nil
}

func seedAdmin(ctx context.Context, db *mongo.Database, opts Options, logger *zap.Logger) error {
	if opts.AdminEmail == "" {
		return nil
	}
	store := userstore.New(db)

	_, err := store.GetByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storeutil.ErrNotFound) {
		return err
	}

	if err := authutil.ValidatePassword(opts.AdminPassword); err != nil {
		logger.Warn("seed admin skipped: unusable password",
			zap.String("email", opts.AdminEmail),
			zap.Error(err))
		return nil
	}
	hash, err := authutil.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}

	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	u, err := store.Create(ctx, userstore.CreateInput{
		FullName:     name,
		Email:        opts.AdminEmail,
		AuthMethod:   models.AuthMethodPassword,
		Role:         models.RoleAdmin,
		PasswordHash: &hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Another instance seeded it first.
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("seeded admin account", zap.String("email", u.Email))
	return nil
}
