// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidValue is returned for a value that is not a string, number,
// boolean, or empty object.
var ErrInvalidValue = storeutil.Kind(storeutil.ErrInvalidValue, "value must be a string, number, boolean, or empty object")

// ErrInvalidKey is returned for a blank key.
var ErrInvalidKey = storeutil.Kind(storeutil.ErrInvalidValue, "key is required")

// Store provides access to the site_settings collection.
// Each document is one key/value pair; key is unique.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the setting for key, or storeutil.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*models.SiteSetting, error) {
	var st models.SiteSetting
	if err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&st); err != nil {
		return nil, storeutil.NotFoundIfNoDocs(err)
	}
	st.Value = models.NormalizeSettingValue(st.Value)
	return &st, nil
}

// Value returns the stored value for key, or nil when the key is absent.
func (s *Store) Value(ctx context.Context, key string) (any, error) {
	st, err := s.Get(ctx, key)
	if errors.Is(err, storeutil.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st.Value, nil
}

// List returns every setting ordered by key.
func (s *Store) List(ctx context.Context) ([]models.SiteSetting, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SiteSetting{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Value = models.NormalizeSettingValue(out[i].Value)
	}
	return out, nil
}

// All returns every setting as key -> value.
func (s *Store) All(ctx context.Context) (map[string]any, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(list))
	for _, st := range list {
		m[st.Key] = st.Value
	}
	return m, nil
}

// UpsertInput holds the fields for writing one setting.
// A nil Description leaves an existing description unchanged.
type UpsertInput struct {
	Key           string
	Value         any
	Description   *string
	UpdatedByID   *primitive.ObjectID
	UpdatedByName string
}

// Upsert writes the value for in.Key. An existing setting keeps its _id and
// created_at; a missing one is inserted. Returns the setting's id.
func (s *Store) Upsert(ctx context.Context, in UpsertInput) (primitive.ObjectID, error) {
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return primitive.NilObjectID, ErrInvalidKey
	}
	if !models.IsValidSettingValue(in.Value) {
		return primitive.NilObjectID, ErrInvalidValue
	}

	now := time.Now().UTC()
	set := bson.M{
		"value":      models.NormalizeSettingValue(in.Value),
		"updated_at": now,
	}
	if in.Description != nil {
		set["description"] = strings.TrimSpace(*in.Description)
	}
	if in.UpdatedByID != nil {
		set["updated_by_id"] = *in.UpdatedByID
		set["updated_by_name"] = in.UpdatedByName
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"key": key}, update, opts).Decode(&doc); err != nil {
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

// InsertIfMissing creates the setting only when key is absent. It never
// overwrites an admin's edit. Reports whether a document was inserted.
func (s *Store) InsertIfMissing(ctx context.Context, key string, value any, description string) (bool, error) {
	if !models.IsValidSettingValue(value) {
		return false, ErrInvalidValue
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"value":       models.NormalizeSettingValue(value),
			"description": description,
			"created_at":  now,
			"updated_at":  now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
