// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	NotifyContactFirmEmail = "contact.firm_email"
	NotifyContactAckEmail  = "contact.ack_email"
)

// Notification statuses.
const (
	NotificationPending = "pending"
	NotificationSending = "sending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

func AllNotificationStatuses() []string {
	return []string{NotificationPending, NotificationSending, NotificationSent, NotificationFailed}
}

// Notification is an outbox entry delivered by the dispatcher.
type Notification struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind         string              `bson:"kind" json:"kind"`
	SubmissionID *primitive.ObjectID `bson:"submission_id,omitempty" json:"submission_id,omitempty"`
	Payload      NotificationPayload `bson:"payload" json:"payload"`

	Status        string     `bson:"status" json:"status"`
	Attempts      int        `bson:"attempts" json:"attempts"`
	MaxAttempts   int        `bson:"max_attempts" json:"max_attempts"`
	NextAttemptAt time.Time  `bson:"next_attempt_at" json:"next_attempt_at"`
	LastError     string     `bson:"last_error,omitempty" json:"last_error,omitempty"`
	WorkerID      string     `bson:"worker_id,omitempty" json:"worker_id,omitempty"`
	ClaimedAt     *time.Time `bson:"claimed_at,omitempty" json:"claimed_at,omitempty"`
	SentAt        *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NotificationPayload is a rendered email.
type NotificationPayload struct {
	To       string `bson:"to" json:"to"`
	Subject  string `bson:"subject" json:"subject"`
	TextBody string `bson:"text_body" json:"text_body"`
	HTMLBody string `bson:"html_body,omitempty" json:"html_body,omitempty"`
	ReplyTo  string `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
}
