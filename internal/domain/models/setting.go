// internal/domain/models/setting.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSetting is one editable key/value pair of firm information.
// Value holds a string, a number, a boolean, or an empty object.
type SiteSetting struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string             `bson:"key" json:"key"`
	Value       any                `bson:"value" json:"value"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Well-known setting keys seeded on first start.
const (
	SettingFirmName       = "firm_name"
	SettingPhone          = "phone"
	SettingWhatsAppNumber = "whatsapp_number"
	SettingContactEmail   = "contact_email"
	SettingAddress        = "address"
	SettingOfficeHours    = "office_hours"
)

// IsValidSettingValue reports whether v is a string, a number, a boolean,
// or an empty object. JSON-decoded values arrive as float64 and
// map[string]any; values read back from Mongo may be int32/int64 or a
// primitive.D.
func IsValidSettingValue(v any) bool {
	switch x := v.(type) {
	case string, bool,
		float64, float32, int, int32, int64:
		return true
	case map[string]any:
		return len(x) == 0
	case primitive.M:
		return len(x) == 0
	case primitive.D:
		return len(x) == 0
	}
	return false
}

// NormalizeSettingValue converts an empty object of any shape to an empty
// primitive.M so it round-trips through the store as {}.
func NormalizeSettingValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 0 {
			return primitive.M{}
		}
	case primitive.D:
		if len(x) == 0 {
			return primitive.M{}
		}
	}
	return v
}
