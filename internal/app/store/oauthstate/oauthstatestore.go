// internal/app/store/oauthstate/oauthstatestore.go
package oauthstatestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTTL bounds how long a sign-in round trip may take.
const DefaultTTL = 10 * time.Minute

// State is a single-use OAuth state token. ReturnTo is where the admin
// lands after a successful sign-in.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	ReturnTo  string             `bson:"return_to,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
}

// New creates a new OAuth state store. A non-positive ttl uses DefaultTTL.
func New(db *mongo.Database, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: db.Collection("oauth_states"), ttl: ttl}
}

// Issue stores a fresh random state token and returns it.
func (s *Store) Issue(ctx context.Context, returnTo string) (string, error) {
	now := time.Now().UTC()
	doc := State{
		ID:        primitive.NewObjectID(),
		State:     uuid.NewString(),
		ReturnTo:  returnTo,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.State, nil
}

// Consume deletes a live state token and returns its ReturnTo. ok is false
// for unknown, expired or already used tokens.
func (s *Store) Consume(ctx context.Context, state string) (returnTo string, ok bool, err error) {
	if state == "" {
		return "", false, nil
	}
	var doc State
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.ReturnTo, true, nil
}
