// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher. The session cookie only carries the
// user id; role and status are read here on every request.
type Fetcher struct {
	users  *mongo.Collection
	logger *zap.Logger
}

func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{users: db.Collection("users"), logger: logger}
}

// sessionFields is the slice of a user document a session needs.
type sessionFields struct {
	ID       primitive.ObjectID `bson:"_id"`
	FullName string             `bson:"full_name"`
	Email    string             `bson:"email"`
	Role     string             `bson:"role"`
	Status   string             `bson:"status"`
}

var sessionProjection = bson.M{"full_name": 1, "email": 1, "role": 1, "status": 1}

// FetchUser returns nil for malformed ids, missing users, accounts that may
// not sign in, and lookup failures. A nil result ends the session.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u sessionFields
	err = f.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(sessionProjection)).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		f.logger.Warn("session user fetch failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	case !status.CanSignIn(normalize.Enum(u.Status)):
		return nil
	}

	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Enum(u.Role),
	}
}
