// internal/app/store/practice/practicestore.go
package practicestore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMissingEnglish is returned when title or description lacks English text.
var ErrMissingEnglish = storeutil.Kind(storeutil.ErrInvalidValue, "title and description need English text")

// Store provides access to the practice_areas collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new practice area store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("practice_areas")}
}

var byOrder = bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.PracticeArea, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(byOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PracticeArea{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active practice areas in display order.
func (s *Store) ListActive(ctx context.Context) ([]models.PracticeArea, error) {
	return s.list(ctx, bson.M{"active": true})
}

// ListAll returns every practice area in display order.
func (s *Store) ListAll(ctx context.Context) ([]models.PracticeArea, error) {
	return s.list(ctx, bson.M{})
}

// GetByID returns a practice area by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PracticeArea, error) {
	var a models.PracticeArea
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.PracticeArea{}, storeutil.NotFoundIfNoDocs(err)
	}
	return a, nil
}

// CreateInput holds the fields for a new practice area.
type CreateInput struct {
	Title       models.LocalizedText
	Description models.LocalizedText
	Icon        string
	Order       int
}

// Create inserts a practice area. New areas are always active.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.PracticeArea, error) {
	title := in.Title.Trimmed()
	desc := in.Description.Trimmed()
	if !title.HasEN() || !desc.HasEN() {
		return models.PracticeArea{}, ErrMissingEnglish
	}

	now := time.Now().UTC()
	a := models.PracticeArea{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: desc,
		Icon:        strings.TrimSpace(in.Icon),
		Order:       in.Order,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.PracticeArea{}, err
	}
	return a, nil
}

// UpdateInput is a partial patch; nil fields are left unchanged.
type UpdateInput struct {
	Title       *models.LocalizedText
	Description *models.LocalizedText
	Icon        *string
	Order       *int
	Active      *bool
}

// Update applies a partial patch to the practice area with id.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		t := in.Title.Trimmed()
		if !t.HasEN() {
			return ErrMissingEnglish
		}
		set["title"] = t
	}
	if in.Description != nil {
		d := in.Description.Trimmed()
		if !d.HasEN() {
			return ErrMissingEnglish
		}
		set["description"] = d
	}
	if in.Icon != nil {
		set["icon"] = strings.TrimSpace(*in.Icon)
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.Active != nil {
		set["active"] = *in.Active
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}

// Count returns the number of practice areas.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// ExistsWithEnglishTitle reports whether an area already uses the English
// title. Seeding uses it to stay idempotent.
func (s *Store) ExistsWithEnglishTitle(ctx context.Context, title string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"title.en": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
