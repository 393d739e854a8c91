// internal/app/store/audit/auditstore.go
package auditstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedNotAdmin      = "login_failed_not_admin"
	EventLoginLockedOut           = "login_locked_out"
	EventLogout                   = "logout"
)

// Admin event types
const (
	EventPostCreated         = "post_created"
	EventPostUpdated         = "post_updated"
	EventPostPublished       = "post_published"
	EventPostUnpublished     = "post_unpublished"
	EventPracticeAreaCreated = "practice_area_created"
	EventPracticeAreaUpdated = "practice_area_updated"
	EventTestimonialApproved = "testimonial_approved"
	EventContactUpdated      = "contact_updated"
	EventSettingUpdated      = "setting_updated"
	EventDocumentUploaded    = "document_uploaded"
	EventDocumentUpdated     = "document_updated"
	EventNotificationRetried = "notification_retried"
	EventUserCreated         = "user_created"
)

// AuthEventTypes lists every auth event type, for filter validation.
func AuthEventTypes() []string {
	return []string{
		EventLoginSuccess, EventLoginFailedUserNotFound, EventLoginFailedWrongPassword,
		EventLoginFailedUserDisabled, EventLoginFailedNotAdmin, EventLoginLockedOut, EventLogout,
	}
}

// AdminEventTypes lists every admin event type.
func AdminEventTypes() []string {
	return []string{
		EventPostCreated, EventPostUpdated, EventPostPublished, EventPostUnpublished,
		EventPracticeAreaCreated, EventPracticeAreaUpdated, EventTestimonialApproved,
		EventContactUpdated, EventSettingUpdated, EventDocumentUploaded, EventDocumentUpdated,
		EventNotificationRetried, EventUserCreated,
	}
}

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// UserID is the affected user, ActorID the admin who acted.
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows an audit query. Zero values match everything.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	ActorID   *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.UserID != nil {
		q["user_id"] = f.UserID
	}
	if f.ActorID != nil {
		q["actor_id"] = f.ActorID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		span := bson.M{}
		if f.StartTime != nil {
			span["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			span["$lte"] = *f.EndTime
		}
		q["created_at"] = span
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_logs")}
}

// Log records an audit event, filling in ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events newest first. Limit defaults to 100, max 500.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(storeutil.ClampLimit(filter.Limit, 100, 500))
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// FailedLoginsSince returns failed sign-in events at or after since.
func (s *Store) FailedLoginsSince(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"category":   CategoryAuth,
		"success":    false,
		"created_at": bson.M{"$gte": since},
	})
}

// DeleteOlderThan removes events created before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
