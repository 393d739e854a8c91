// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentStatus is the review state of a client document.
// Ordered pending < reviewed < processed; moves are forward-only.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentReviewed  DocumentStatus = "reviewed"
	DocumentProcessed DocumentStatus = "processed"
)

var documentStatusOrder = []DocumentStatus{DocumentPending, DocumentReviewed, DocumentProcessed}

func AllDocumentStatuses() []string {
	out := make([]string, len(documentStatusOrder))
	for i, s := range documentStatusOrder {
		out[i] = string(s)
	}
	return out
}

func (s DocumentStatus) rank() int {
	for i, v := range documentStatusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s DocumentStatus) Valid() bool { return s.rank() >= 0 }

func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// StatusesAtOrBefore returns every status from which s is reachable.
func (s DocumentStatus) StatusesAtOrBefore() []string {
	r := s.rank()
	if r < 0 {
		return nil
	}
	return AllDocumentStatuses()[:r+1]
}

// ClientDocument is a file the firm holds for a client matter.
type ClientDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientEmail   string             `bson:"client_email" json:"client_email"`
	CaseReference string             `bson:"case_reference,omitempty" json:"case_reference,omitempty"`

	FileName    string `bson:"file_name" json:"file_name"`
	StoragePath string `bson:"storage_path" json:"-"`
	ContentType string `bson:"content_type" json:"content_type"`
	Size        int64  `bson:"size" json:"size"`

	UploadedBy string         `bson:"uploaded_by" json:"uploaded_by"`
	Status     DocumentStatus `bson:"status" json:"status"`
	Notes      string         `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
