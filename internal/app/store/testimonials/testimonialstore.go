// internal/app/store/testimonials/testimonialstore.go
package testimonialstore

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

var (
	// ErrInvalidRating is returned for a rating outside 1..5.
	ErrInvalidRating = storeutil.Kind(storeutil.ErrInvalidValue, "rating must be between 1 and 5")
	// ErrEmptyContent is returned when the testimonial text is blank.
	ErrEmptyContent = storeutil.Kind(storeutil.ErrInvalidValue, "content is required")
)

// Store provides access to the testimonials collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new testimonial store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("testimonials")}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Testimonial, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Testimonial{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitInput is a public testimonial submission.
type SubmitInput struct {
	ClientName string
	CaseType   string
	Content    string
	Rating     int
	Language   string
}

// Submit stores a new testimonial in the pending state. The text is kept
// under the submitter's language and mirrored into English when that
// language is not English.
func (s *Store) Submit(ctx context.Context, in SubmitInput) (models.Testimonial, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Testimonial{}, ErrEmptyContent
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return models.Testimonial{}, ErrInvalidRating
	}

	now := time.Now().UTC()
	t := models.Testimonial{
		ID:         primitive.NewObjectID(),
		ClientName: strings.TrimSpace(in.ClientName),
		CaseType:   strings.TrimSpace(in.CaseType),
		Content:    models.SingleLocale(in.Language, content),
		Language:   models.NormalizeLang(in.Language),
		Rating:     in.Rating,
		State:      models.TestimonialPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Testimonial{}, err
	}
	return t, nil
}

// ListVisible returns approved and featured testimonials, newest first.
// With featuredOnly set, only featured ones are returned.
func (s *Store) ListVisible(ctx context.Context, featuredOnly bool) ([]models.Testimonial, error) {
	filter := bson.M{"state": bson.M{"$in": bson.A{models.TestimonialApproved, models.TestimonialFeatured}}}
	if featuredOnly {
		filter = bson.M{"state": models.TestimonialFeatured}
	}
	return s.list(ctx, filter)
}

// ListAll returns every testimonial, newest first. A non-empty state
// filters to that state.
func (s *Store) ListAll(ctx context.Context, state models.TestimonialState) ([]models.Testimonial, error) {
	filter := bson.M{}
	if state != "" {
		filter["state"] = state
	}
	return s.list(ctx, filter)
}

// GetByID returns a testimonial by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Testimonial, error) {
	var t models.Testimonial
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Testimonial{}, storeutil.NotFoundIfNoDocs(err)
	}
	return t, nil
}

// Approve moves a testimonial to featured when featured is true, else to
// approved. approved_at is recorded on the first approval.
func (s *Store) Approve(ctx context.Context, id primitive.ObjectID, featured bool) error {
	next := models.TestimonialApproved
	if featured {
		next = models.TestimonialFeatured
	}

	var from []string
	for _, st := range models.AllTestimonialStates() {
		if models.TestimonialState(st).CanTransitionTo(next) {
			from = append(from, st)
		}
	}

	now := time.Now().UTC()
	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "state", Value: next},
		{Key: "approved_at", Value: bson.M{"$ifNull": bson.A{"$approved_at", now}}},
		{Key: "updated_at", Value: now},
	}}}}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "state": bson.M{"$in": from}}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return storeutil.ErrInvalidTransition
}

// CountByState returns the number of testimonials in each state.
func (s *Store) CountByState(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$state", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64, 3)
	for _, st := range models.AllTestimonialStates() {
		out[st] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			State string `bson:"_id"`
			N     int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.State] = row.N
	}
	return out, cur.Err()
}
