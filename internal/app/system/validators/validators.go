// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("blog_posts", blogPostsSchema())
	ensure("practice_areas", practiceAreasSchema())
	ensure("testimonials", testimonialsSchema())
	ensure("contact_submissions", contactSubmissionsSchema())
	ensure("site_settings", siteSettingsSchema())
	ensure("users", usersSchema())
	ensure("client_documents", clientDocumentsSchema())
	ensure("notifications", notificationsSchema())
	ensure("audit_logs", nil)
	ensure("rate_limits", nil)
	ensure("oauth_states", nil)
	ensure("traffic_stats", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(values []string) bson.M {
	a := make(bson.A, len(values))
	for i, v := range values {
		a[i] = v
	}
	return bson.M{"enum": a}
}

// localized describes a LocalizedText document. With requireEN, en must
// be present and non-blank.
func localized(requireEN bool) bson.M {
	props := bson.M{}
	for _, code := range models.SupportedLangCodes() {
		props[code] = bson.M{"bsonType": "string"}
	}
	doc := bson.M{"bsonType": "object", "properties": props}
	if requireEN {
		props[models.LangEN] = nonBlank
		doc["required"] = bson.A{models.LangEN}
	}
	return doc
}

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func blogPostsSchema() bson.M {
	return schema(bson.A{"title", "content", "slug", "published"}, bson.M{
		"title":     localized(true),
		"content":   localized(true),
		"excerpt":   localized(false),
		"slug":      bson.M{"bsonType": "string", "minLength": 1, "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
		"published": bson.M{"bsonType": "bool"},
		"tags":      bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
	})
}

func practiceAreasSchema() bson.M {
	return schema(bson.A{"title", "active", "order"}, bson.M{
		"title":       localized(true),
		"description": localized(false),
		"active":      bson.M{"bsonType": "bool"},
		"order":       bson.M{"bsonType": bson.A{"int", "long"}},
	})
}

func testimonialsSchema() bson.M {
	return schema(bson.A{"client_name", "content", "rating", "state"}, bson.M{
		"client_name": nonBlank,
		"content":     localized(true),
		"language":    enumOf(models.SupportedLangCodes()),
		"rating":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 5},
		"state":       enumOf(models.AllTestimonialStates()),
	})
}

func contactSubmissionsSchema() bson.M {
	return schema(bson.A{"name", "email", "message", "status", "priority"}, bson.M{
		"name":     nonBlank,
		"email":    nonBlank,
		"message":  nonBlank,
		"language": enumOf(models.SupportedLangCodes()),
		"status":   enumOf(models.AllContactStatuses()),
		"priority": enumOf(models.AllPriorities()),
	})
}

func siteSettingsSchema() bson.M {
	return schema(bson.A{"key", "value"}, bson.M{
		"key":   nonBlank,
		"value": bson.M{"bsonType": bson.A{"string", "int", "long", "double", "decimal", "bool", "object"}},
	})
}

func usersSchema() bson.M {
	return schema(bson.A{"full_name", "email", "email_ci", "role", "status", "auth_method"}, bson.M{
		"full_name":   nonBlank,
		"email":       nonBlank,
		"email_ci":    nonBlank,
		"role":        enumOf(models.AllRoles()),
		"status":      enumOf(status.All()),
		"auth_method": enumOf(models.AllAuthMethodValues()),
	})
}

func clientDocumentsSchema() bson.M {
	return schema(bson.A{"client_email", "file_name", "storage_path", "status"}, bson.M{
		"client_email": nonBlank,
		"file_name":    nonBlank,
		"storage_path": nonBlank,
		"size":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
		"status":       enumOf(models.AllDocumentStatuses()),
	})
}

func notificationsSchema() bson.M {
	return schema(bson.A{"kind", "payload", "status", "attempts", "max_attempts"}, bson.M{
		"kind":         enumOf([]string{models.NotifyContactFirmEmail, models.NotifyContactAckEmail}),
		"payload":      bson.M{"bsonType": "object", "required": bson.A{"to", "subject"}},
		"status":       enumOf(models.AllNotificationStatuses()),
		"attempts":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
		"max_attempts": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
	})
}
