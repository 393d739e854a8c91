// internal/domain/models/practice.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PracticeArea is one of the firm's areas of law.
type PracticeArea struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       LocalizedText      `bson:"title" json:"title"`
	Description LocalizedText      `bson:"description" json:"description"`
	Icon        string             `bson:"icon" json:"icon"` // emoji or short icon name
	Order       int                `bson:"order" json:"order"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// PracticeAreaView is a practice area resolved to one language.
type PracticeAreaView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

func (a PracticeArea) Resolve(lang string) PracticeAreaView {
	return PracticeAreaView{
		ID:          a.ID.Hex(),
		Title:       a.Title.Resolve(lang),
		Description: a.Description.Resolve(lang),
		Icon:        a.Icon,
		Order:       a.Order,
	}
}
