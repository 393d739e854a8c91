// internal/app/store/contact/contactstore.go
package contactstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrInvalidStatus   = storeutil.Kind(storeutil.ErrInvalidValue, "status must be one of: new, read, responded, archived")
	ErrInvalidPriority = storeutil.Kind(storeutil.ErrInvalidValue, "priority must be one of: low, medium, high, urgent")
	ErrEmptyPatch      = storeutil.Kind(storeutil.ErrInvalidValue, "nothing to update")
)

// Store provides access to the contact_submissions collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new contact store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contact_submissions")}
}

// CreateInput is a public contact-form submission.
type CreateInput struct {
	Name     string
	Email    string
	Phone    string
	Subject  string
	Message  string
	Language string
}

// Create stores a submission. Every submission starts as new with medium
// priority.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.ContactSubmission, error) {
	now := time.Now().UTC()
	sub := models.ContactSubmission{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     normalize.Phone(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		Language:  models.NormalizeLang(in.Language),
		Status:    models.ContactNew,
		Priority:  models.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		return models.ContactSubmission{}, err
	}
	return sub, nil
}

// List returns submissions newest first. A non-empty status filters to it.
func (s *Store) List(ctx context.Context, status models.ContactStatus) ([]models.ContactSubmission, error) {
	filter := bson.M{}
	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ContactSubmission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a submission by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ContactSubmission, error) {
	var sub models.ContactSubmission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return models.ContactSubmission{}, storeutil.NotFoundIfNoDocs(err)
	}
	return sub, nil
}

// UpdateInput is a triage patch. At least one field must be set.
type UpdateInput struct {
	Status   *models.ContactStatus
	Priority *models.Priority
}

// Update applies a triage patch and returns the updated submission.
//
// Status may stay the same or move forward (new < read < responded <
// archived). The ordering check is part of the update filter, so a
// concurrent move past the requested status makes this call fail with
// storeutil.ErrInvalidTransition rather than move the record back.
// responded_at is recorded the first time the status reaches responded.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (models.ContactSubmission, error) {
	if in.Status == nil && in.Priority == nil {
		return models.ContactSubmission{}, ErrEmptyPatch
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": id}
	set := bson.D{{Key: "updated_at", Value: now}}

	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return models.ContactSubmission{}, ErrInvalidStatus
		}
		filter["status"] = bson.M{"$in": next.StatusesAtOrBefore()}
		set = append(set, bson.E{Key: "status", Value: next})
		if next == models.ContactResponded {
			set = append(set, bson.E{Key: "responded_at", Value: bson.M{"$ifNull": bson.A{"$responded_at", now}}})
		}
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return models.ContactSubmission{}, ErrInvalidPriority
		}
		set = append(set, bson.E{Key: "priority", Value: *in.Priority})
	}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub models.ContactSubmission
	err := s.c.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&sub)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.ContactSubmission{}, err
	}

	// No match: either the id is unknown or the status would move back.
	if _, err := s.GetByID(ctx, id); err != nil {
		return models.ContactSubmission{}, err
	}
	return models.ContactSubmission{}, storeutil.ErrInvalidTransition
}

// CountByStatus returns the number of submissions in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64, 4)
	for _, st := range models.AllContactStatuses() {
		out[st] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
