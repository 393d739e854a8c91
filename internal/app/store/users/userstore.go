// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email already belongs to a user.
	ErrDuplicateEmail = storeutil.Kind(storeutil.ErrDuplicate, "email is already registered")
	errBadRole        = storeutil.Kind(storeutil.ErrInvalidValue, "invalid role")
	errBadStatus      = storeutil.Kind(storeutil.ErrInvalidValue, `status must be "active"|"disabled"`)
	errBadAuthMethod  = storeutil.Kind(storeutil.ErrInvalidValue, "invalid auth method")
	errNoEmail        = storeutil.Kind(storeutil.ErrInvalidValue, "email is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, storeutil.NotFoundIfNoDocs(err)
	}
	return &u, nil
}

// GetByEmail looks up a user by case/diacritic-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u); err != nil {
		return nil, storeutil.NotFoundIfNoDocs(err)
	}
	return &u, nil
}

// CreateInput holds the fields for creating a new user.
type CreateInput struct {
	FullName     string
	Email        string
	AuthMethod   string
	Role         string
	Status       string // defaults to active
	PasswordHash *string
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.User, error) {
	email := normalize.Email(in.Email)
	if email == "" {
		return models.User{}, errNoEmail
	}
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     normalize.Name(in.FullName),
		Email:        email,
		EmailCI:      text.Fold(email),
		AuthMethod:   normalize.Enum(in.AuthMethod),
		PasswordHash: in.PasswordHash,
		Role:         normalize.Enum(in.Role),
		Status:       normalize.Enum(in.Status),
	}
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthMethodPassword
	}
	if u.Status == "" {
		u.Status = status.Default()
	}

	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}
	if !models.IsValidAuthMethod(u.AuthMethod) {
		return models.User{}, errBadAuthMethod
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateInput holds the optional fields for updating a user.
// All fields are pointers - nil means "don't update this field".
type UpdateInput struct {
	FullName     *string
	Email        *string
	AuthMethod   *string
	Role         *string
	Status       *string
	PasswordHash *string
}

// Update updates a user using optional fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if in.FullName != nil {
		set["full_name"] = normalize.Name(*in.FullName)
	}
	if in.Email != nil {
		email := normalize.Email(*in.Email)
		if email == "" {
			return errNoEmail
		}
		set["email"] = email
		set["email_ci"] = text.Fold(email)
	}
	if in.AuthMethod != nil {
		m := normalize.Enum(*in.AuthMethod)
		if !models.IsValidAuthMethod(m) {
			return errBadAuthMethod
		}
		set["auth_method"] = m
	}
	if in.Role != nil {
		r := normalize.Enum(*in.Role)
		if !models.IsValidRole(r) {
			return errBadRole
		}
		set["role"] = r
	}
	if in.Status != nil {
		st := normalize.Enum(*in.Status)
		if !status.IsValid(st) {
			return errBadStatus
		}
		set["status"] = st
	}
	if in.PasswordHash != nil {
		set["password_hash"] = *in.PasswordHash
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}

// RecordLogin stamps last_login_at.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": now}})
	return err
}

// Delete deletes a user by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountActiveAdmins returns the number of users with role=admin and status=active.
func (s *Store) CountActiveAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"role":   models.RoleAdmin,
		"status": status.Active,
	})
}

// GetByIDs returns the users with the given ids, in no particular order.
// Missing ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAll returns all users sorted by email.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"email_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
