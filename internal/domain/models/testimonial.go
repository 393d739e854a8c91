// internal/domain/models/testimonial.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestimonialState is the moderation state of a testimonial.
// pending -> approved|featured, approved <-> featured. Nothing returns to pending.
type TestimonialState string

const (
	TestimonialPending  TestimonialState = "pending"
	TestimonialApproved TestimonialState = "approved"
	TestimonialFeatured TestimonialState = "featured"
)

// AllTestimonialStates returns the valid states in workflow order.
func AllTestimonialStates() []string {
	return []string{string(TestimonialPending), string(TestimonialApproved), string(TestimonialFeatured)}
}

func (s TestimonialState) Valid() bool {
	switch s {
	case TestimonialPending, TestimonialApproved, TestimonialFeatured:
		return true
	}
	return false
}

// Visible reports whether the state is shown on the public site.
func (s TestimonialState) Visible() bool {
	return s == TestimonialApproved || s == TestimonialFeatured
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Re-applying the current state is allowed except for pending.
func (s TestimonialState) CanTransitionTo(next TestimonialState) bool {
	if !s.Valid() || !next.Valid() || next == TestimonialPending {
		return false
	}
	return true
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Testimonial is a client review. Submitted publicly, shown once approved.
type Testimonial struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientName string             `bson:"client_name" json:"client_name"`
	CaseType   string             `bson:"case_type" json:"case_type"`
	Content    LocalizedText      `bson:"content" json:"content"`
	Language   string             `bson:"language" json:"language"`
	Rating     int                `bson:"rating" json:"rating"`

	State      TestimonialState `bson:"state" json:"state"`
	ApprovedAt *time.Time       `bson:"approved_at,omitempty" json:"approved_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (t Testimonial) Approved() bool { return t.State.Visible() }
func (t Testimonial) Featured() bool { return t.State == TestimonialFeatured }

// TestimonialAdminView is the unresolved admin view with the derived flags.
type TestimonialAdminView struct {
	Testimonial
	Approved bool `json:"approved"`
	Featured bool `json:"featured"`
}

func (t Testimonial) AdminView() TestimonialAdminView {
	return TestimonialAdminView{Testimonial: t, Approved: t.Approved(), Featured: t.Featured()}
}

// TestimonialView is a testimonial resolved to one language.
type TestimonialView struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	CaseType   string    `json:"case_type"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	Approved   bool      `json:"approved"`
	Featured   bool      `json:"featured"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t Testimonial) Resolve(lang string) TestimonialView {
	return TestimonialView{
		ID:         t.ID.Hex(),
		ClientName: t.ClientName,
		CaseType:   t.CaseType,
		Content:    t.Content.Resolve(lang),
		Rating:     t.Rating,
		Approved:   t.Approved(),
		Featured:   t.Featured(),
		CreatedAt:  t.CreatedAt,
	}
}
