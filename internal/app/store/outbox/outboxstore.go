// internal/app/store/outbox/outboxstore.go
package outboxstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMaxAttempts is used when Enqueue is given a non-positive limit.
const DefaultMaxAttempts = 5

var (
	// ErrNotRetryable is returned when retrying a notification that has not failed.
	ErrNotRetryable = storeutil.Kind(storeutil.ErrInvalidTransition, "only failed notifications can be retried")
	// ErrNotClaimed is returned when completing or failing a notification
	// that is no longer in the sending state.
	ErrNotClaimed = storeutil.Kind(storeutil.ErrInvalidTransition, "notification is not being sent")
)

// Store provides persistence for the notification outbox.
type Store struct {
	c *mongo.Collection
}

// New creates a new outbox store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Enqueue stores a pending notification due immediately.
func (s *Store) Enqueue(ctx context.Context, kind string, submissionID *primitive.ObjectID, payload models.NotificationPayload, maxAttempts int) (primitive.ObjectID, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	now := time.Now().UTC()
	n := models.Notification{
		ID:            primitive.NewObjectID(),
		Kind:          kind,
		SubmissionID:  submissionID,
		Payload:       payload,
		Status:        models.NotificationPending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return primitive.NilObjectID, err
	}
	return n.ID, nil
}

// ClaimNext atomically claims the oldest due pending notification.
// Returns nil, nil if none is due.
func (s *Store) ClaimNext(ctx context.Context, workerID string) (*models.Notification, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"status":          models.NotificationPending,
		"next_attempt_at": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     models.NotificationSending,
			"claimed_at": now,
			"worker_id":  workerID,
			"updated_at": now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var n models.Notification
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// Complete marks a claimed notification as sent.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationSending},
		bson.M{
			"$set": bson.M{
				"status":     models.NotificationSent,
				"sent_at":    now,
				"updated_at": now,
			},
			"$unset": bson.M{"worker_id": "", "claimed_at": "", "last_error": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotClaimed
	}
	return nil
}

// retryOrFail returns the pipeline stage that sends a notification back to
// pending after retryDelay × attempts, or marks it failed once attempts
// reaches max_attempts.
func retryOrFail(now time.Time, retryDelay time.Duration, errMsg string) mongo.Pipeline {
	exhausted := bson.M{"$gte": bson.A{"$attempts", "$max_attempts"}}
	backoff := bson.M{"$multiply": bson.A{retryDelay.Milliseconds(), "$attempts"}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.M{"$cond": bson.A{exhausted, models.NotificationFailed, models.NotificationPending}}},
			{Key: "next_attempt_at", Value: bson.M{"$cond": bson.A{exhausted, "$next_attempt_at", bson.M{"$add": bson.A{now, backoff}}}}},
			{Key: "last_error", Value: errMsg},
			{Key: "updated_at", Value: now},
		}}},
		{{Key: "$unset", Value: bson.A{"worker_id", "claimed_at"}}},
	}
}

// Fail records a delivery error on a claimed notification. It is
// rescheduled after retryDelay × attempts, or marked failed once its
// attempts are used up. Returns the updated notification.
func (s *Store) Fail(ctx context.Context, id primitive.ObjectID, errMsg string, retryDelay time.Duration) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n models.Notification
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.NotificationSending},
		retryOrFail(time.Now().UTC(), retryDelay, errMsg),
		opts,
	).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotClaimed
		}
		return nil, err
	}
	return &n, nil
}

// RequeueStale returns notifications stuck in sending for longer than
// staleThreshold to pending, or marks them failed when out of attempts.
// This recovers work from workers that stopped mid-send.
func (s *Store) RequeueStale(ctx context.Context, staleThreshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":     models.NotificationSending,
			"claimed_at": bson.M{"$lt": now.Add(-staleThreshold)},
		},
		retryOrFail(now, 0, "worker timeout - re-queued"),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PruneSent deletes sent notifications older than cutoff.
func (s *Store) PruneSent(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":  models.NotificationSent,
		"sent_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Retry returns a failed notification to pending with a fresh attempt budget.
func (s *Store) Retry(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationFailed},
		bson.M{"$set": bson.M{
			"status":          models.NotificationPending,
			"attempts":        0,
			"next_attempt_at": now,
			"updated_at":      now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrNotRetryable
}

// GetByID retrieves a notification by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, storeutil.NotFoundIfNoDocs(err)
	}
	return &n, nil
}

// List returns notifications newest first. A non-empty status filters to it.
func (s *Store) List(ctx context.Context, status string, limit int64) ([]models.Notification, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(storeutil.ClampLimit(limit, 50, 200))

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus returns the number of notifications in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64, 4)
	for _, st := range models.AllNotificationStatuses() {
		out[st] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.Count
	}
	return out, cur.Err()
}
