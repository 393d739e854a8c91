// Package documentstore persists metadata for client documents. The file
// bytes live in object storage under StoragePath.
package documentstore

import (
	"context"
	"errors"
	"regexp"
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
	ErrInvalidStatus = storeutil.Kind(storeutil.ErrInvalidValue, "invalid document status")
	ErrMissingFile   = storeutil.Kind(storeutil.ErrInvalidValue, "file name and storage path are required")
	ErrMissingEmail  = storeutil.Kind(storeutil.ErrInvalidValue, "client email is required")
	ErrEmptyPatch    = storeutil.Kind(storeutil.ErrInvalidValue, "nothing to update")
)

// Store provides access to the client_documents collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new document store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("client_documents")}
}

// CreateInput contains the input for recording an uploaded document.
type CreateInput struct {
	ClientEmail   string
	CaseReference string
	FileName      string
	StoragePath   string
	ContentType   string
	Size          int64
	UploadedBy    string
	Notes         string
}

// Create records a new document in the pending state.
func (s *Store) Create(ctx context.Context, in CreateInput) (*models.ClientDocument, error) {
	email := normalize.Email(in.ClientEmail)
	if email == "" {
		return nil, ErrMissingEmail
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" || in.StoragePath == "" {
		return nil, ErrMissingFile
	}

	now := time.Now().UTC()
	doc := models.ClientDocument{
		ID:            primitive.NewObjectID(),
		ClientEmail:   email,
		CaseReference: normalize.CaseReference(in.CaseReference),
		FileName:      name,
		StoragePath:   in.StoragePath,
		ContentType:   in.ContentType,
		Size:          in.Size,
		UploadedBy:    in.UploadedBy,
		Status:        models.DocumentPending,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByID retrieves a document by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ClientDocument, error) {
	var doc models.ClientDocument
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, storeutil.NotFoundIfNoDocs(err)
	}
	return &doc, nil
}

// ListOptions filters a document listing. Zero values match everything.
type ListOptions struct {
	ClientEmail   string
	CaseReference string
	Status        string
	Search        string // substring of the file name, case-insensitive
}

// List returns documents newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.ClientDocument, error) {
	filter := bson.M{}
	if e := normalize.Email(opts.ClientEmail); e != "" {
		filter["client_email"] = e
	}
	if ref := normalize.CaseReference(opts.CaseReference); ref != "" {
		filter["case_reference"] = ref
	}
	if opts.Status != "" {
		if !models.DocumentStatus(opts.Status).Valid() {
			return nil, ErrInvalidStatus
		}
		filter["status"] = opts.Status
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		filter["file_name"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ClientDocument{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInput is a partial patch. Status may only move forward.
type UpdateInput struct {
	Status *models.DocumentStatus
	Notes  *string
}

// Update applies the patch and returns the updated document. A backwards
// status move returns storeutil.ErrInvalidTransition.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.ClientDocument, error) {
	if in.Status == nil && in.Notes == nil {
		return nil, ErrEmptyPatch
	}

	filter := bson.M{"_id": id}
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return nil, ErrInvalidStatus
		}
		filter["status"] = bson.M{"$in": next.StatusesAtOrBefore()}
		set["status"] = next
	}
	if in.Notes != nil {
		set["notes"] = strings.TrimSpace(*in.Notes)
	}

	var doc models.ClientDocument
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return &doc, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, storeutil.ErrInvalidTransition
}

// Delete removes a document record. The caller removes the stored bytes.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of documents in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 3)
	for _, st := range models.AllDocumentStatuses() {
		n, err := s.c.CountDocuments(ctx, bson.M{"status": st})
		if err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, nil
}
