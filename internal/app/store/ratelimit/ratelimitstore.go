// internal/app/store/ratelimit/ratelimitstore.go
package ratelimitstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt tracks failed sign-in attempts for one login identifier.
type Attempt struct {
	LoginID      string     `bson:"login_id"`
	AttemptCount int        `bson:"attempt_count"`
	WindowStart  time.Time  `bson:"window_start"`
	LockedUntil  *time.Time `bson:"locked_until"`
	LastAttempt  time.Time  `bson:"last_attempt"` // TTL index field
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

// Store counts failed sign-ins per email and locks the email out after
// maxAttempts failures inside window.
type Store struct {
	c           *mongo.Collection
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

// New creates a new Store.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Store{
		c:           db.Collection("rate_limits"),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CheckAllowed reports whether loginID may attempt to sign in now.
// remaining is -1 while locked. Store errors fail open.
func (s *Store) CheckAllowed(ctx context.Context, loginID string) (allowed bool, remaining int, lockedUntil *time.Time) {
	a, err := s.GetAttempt(ctx, loginID)
	if err != nil || a == nil {
		return true, s.maxAttempts, nil
	}

	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return false, -1, a.LockedUntil
	}
	if now.After(a.WindowStart.Add(s.window)) {
		return true, s.maxAttempts, nil
	}
	remaining = s.maxAttempts - a.AttemptCount
	if remaining <= 0 {
		// The lockout has passed but the window has not; start over.
		return true, s.maxAttempts, nil
	}
	return true, remaining, nil
}

// RecordFailure counts one failed attempt and reports whether it locked the
// login out. The count restarts when the window has passed. The update is a
// single upserting pipeline so concurrent failures are all counted.
func (s *Store) RecordFailure(ctx context.Context, loginID string) (lockedOut bool, lockedUntil *time.Time, err error) {
	now := s.now()
	expired := bson.M{"$lt": bson.A{
		bson.M{"$ifNull": bson.A{"$window_start", time.Time{}}},
		now.Add(-s.window),
	}}
	// A count left over from a finished lockout also restarts.
	stale := bson.M{"$and": bson.A{
		bson.M{"$ne": bson.A{bson.M{"$ifNull": bson.A{"$locked_until", nil}}, nil}},
		bson.M{"$lte": bson.A{"$locked_until", now}},
	}}
	restart := bson.M{"$or": bson.A{expired, stale}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "attempt_count", Value: bson.M{"$cond": bson.A{
				restart, 1, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$attempt_count", 0}}, 1}},
			}}},
			{Key: "window_start", Value: bson.M{"$cond": bson.A{restart, now, "$window_start"}}},
			{Key: "last_attempt", Value: now},
			{Key: "updated_at", Value: now},
			{Key: "created_at", Value: bson.M{"$ifNull": bson.A{"$created_at", now}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "locked_until", Value: bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$attempt_count", s.maxAttempts}},
				now.Add(s.lockout),
				nil,
			}}},
		}}},
	}

	var a Attempt
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"login_id": normalize.Email(loginID)},
		pipeline,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return false, nil, err
	}
	if a.LockedUntil != nil {
		return true, a.LockedUntil, nil
	}
	return false, nil, nil
}

// ClearOnSuccess removes the counter after a successful sign-in.
func (s *Store) ClearOnSuccess(ctx context.Context, loginID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"login_id": normalize.Email(loginID)})
	return err
}

// GetAttempt returns the counter for loginID, or nil when there is none.
func (s *Store) GetAttempt(ctx context.Context, loginID string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"login_id": normalize.Email(loginID)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
