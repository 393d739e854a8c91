// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactStatus is the triage state of a contact submission.
// Ordered new < read < responded < archived; moves are forward-only.
type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactRead      ContactStatus = "read"
	ContactResponded ContactStatus = "responded"
	ContactArchived  ContactStatus = "archived"
)

var contactStatusOrder = []ContactStatus{ContactNew, ContactRead, ContactResponded, ContactArchived}

// AllContactStatuses returns the statuses in workflow order.
func AllContactStatuses() []string {
	out := make([]string, len(contactStatusOrder))
	for i, s := range contactStatusOrder {
		out[i] = string(s)
	}
	return out
}

func (s ContactStatus) rank() int {
	for i, v := range contactStatusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s ContactStatus) Valid() bool { return s.rank() >= 0 }

// CanTransitionTo reports whether next is s or a later status.
func (s ContactStatus) CanTransitionTo(next ContactStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// StatusesAtOrBefore returns every status from which s is reachable.
func (s ContactStatus) StatusesAtOrBefore() []string {
	r := s.rank()
	if r < 0 {
		return nil
	}
	return AllContactStatuses()[:r+1]
}

// Priority is the triage priority of a contact submission. Any value may
// replace any other.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func AllPriorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh), string(PriorityUrgent)}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Subject is a contact-form subject option.
type Subject struct {
	Value string
	Label string
}

// ContactSubjects are the subject options of the contact form.
var ContactSubjects = []Subject{
	{Value: "civil-litigation", Label: "Civil Litigation"},
	{Value: "criminal-law", Label: "Criminal Law"},
	{Value: "corporate-commercial", Label: "Corporate & Commercial Law"},
	{Value: "property-conveyancing", Label: "Property & Conveyancing"},
	{Value: "family-law", Label: "Family Law"},
	{Value: "employment-labor", Label: "Employment & Labor Law"},
	{Value: "constitutional-administrative", Label: "Constitutional & Administrative Law"},
	{Value: "alternative-dispute-resolution", Label: "Alternative Dispute Resolution"},
	{Value: "legal-research-advisory", Label: "Legal Research & Advisory"},
	{Value: "general-inquiry", Label: "General Inquiry"},
}

// SubjectLabel returns the display label for a subject value, or the value
// itself when it is not a known option.
func SubjectLabel(value string) string {
	for _, s := range ContactSubjects {
		if s.Value == value {
			return s.Label
		}
	}
	return value
}

// ContactSubmission is a message sent through the public contact form.
type ContactSubmission struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject  string             `bson:"subject" json:"subject"`
	Message  string             `bson:"message" json:"message"`
	Language string             `bson:"language" json:"language"`

	Status      ContactStatus `bson:"status" json:"status"`
	Priority    Priority      `bson:"priority" json:"priority"`
	RespondedAt *time.Time    `bson:"responded_at,omitempty" json:"responded_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
