// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// BlogTitleTextIndex is the text index backing public post search.
const BlogTitleTextIndex = "idx_blog_title_text"

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll   string
		ensure func(context.Context, *mongo.Collection) error
	}{
		{"blog_posts", ensureBlogPosts},
		{"practice_areas", ensurePracticeAreas},
		{"testimonials", ensureTestimonials},
		{"contact_submissions", ensureContactSubmissions},
		{"site_settings", ensureSiteSettings},
		{"users", ensureUsers},
		{"client_documents", ensureClientDocuments},
		{"notifications", ensureNotifications},
		{"audit_logs", ensureAuditLogs},
		{"rate_limits", ensureRateLimits},
		{"oauth_states", ensureOAuthStates},
		{"traffic_stats", ensureTrafficStats},
	}

	var problems []string
	for _, s := range sets {
		if err := s.ensure(ctx, db.Collection(s.coll)); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

// isDuplicateKeyErr reports an E11000 from any driver error shape.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection may not exist yet; everything gets created.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if boolOf(unique) == boolOf(ex.Unique) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Uniqueness changed: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop failed: %v", name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && boolOf(unique) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", sig),
			zap.Bool("unique", boolOf(unique)),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureBlogPosts(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_blog_slug"),
		},
		// Public list: published only, newest first.
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_blog_published_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_blog_created"),
		},
		{
			Keys:    bson.D{{Key: "title.en", Value: "text"}},
			Options: options.Index().SetName(BlogTitleTextIndex).SetDefaultLanguage("english"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("idx_blog_tags"),
		},
	})
}

func ensurePracticeAreas(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_practice_active_order"),
		},
		{
			Keys:    bson.D{{Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_practice_order"),
		},
	})
}

func ensureTestimonials(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_testimonials_state_created"),
		},
	})
}

func ensureContactSubmissions(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contact_status_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contact_created"),
		},
	})
}

func ensureSiteSettings(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_settings_key"),
		},
	})
}

func ensureUsers(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email_ci"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	})
}

func ensureClientDocuments(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_email", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_docs_client_created"),
		},
		{
			Keys:    bson.D{{Key: "case_reference", Value: 1}},
			Options: options.Index().SetName("idx_docs_case"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_docs_status"),
		},
	})
}

func ensureNotifications(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Claim path: due pending rows in order.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}},
			Options: options.Index().SetName("idx_notify_status_next"),
		},
		{
			Keys:    bson.D{{Key: "submission_id", Value: 1}},
			Options: options.Index().SetName("idx_notify_submission"),
		},
		// Pruning sent rows.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "sent_at", Value: 1}},
			Options: options.Index().SetName("idx_notify_status_sent"),
		},
	})
}

func ensureAuditLogs(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_user"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_event_type"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
	})
}

func ensureRateLimits(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_ratelimit_login_id"),
		},
		// Idle counters expire after a day.
		{
			Keys:    bson.D{{Key: "last_attempt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_ratelimit_ttl"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_expires_ttl"),
		},
	})
}

func ensureTrafficStats(ctx context.Context, c *mongo.Collection) error {
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "bucket", Value: 1},
				{Key: "endpoint", Value: 1},
				{Key: "bucket_duration", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_traffic_bucket"),
		},
	})
}
