// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"errors"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Error kinds shared by every store. Store-specific errors wrap one of
// these so handlers can map them to HTTP status with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidValue      = errors.New("invalid value")
)

type kindError struct {
	base error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.base }

// Kind returns an error reading msg that still matches errors.Is(err, base).
func Kind(base error, msg string) error {
	return &kindError{base: base, msg: msg}
}

// NotFoundIfNoDocs converts mongo.ErrNoDocuments to ErrNotFound.
func NotFoundIfNoDocs(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// ParseID parses a hex ObjectID, returning ErrNotFound for malformed input
// since no record can carry such an id.
func ParseID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// MaxPage is the highest 1-based page number ParsePage returns.
const MaxPage = 10000

// ParsePage reads a 1-based page number from a query value. Missing or
// malformed values give 1; values past MaxPage give MaxPage.
func ParsePage(raw string) int64 {
	p, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	switch {
	case err != nil || p < 1:
		return 1
	case p > MaxPage:
		return MaxPage
	}
	return p
}

// PageOffset returns the skip for page (as returned by ParsePage) at size
// entries per page.
func PageOffset(page, size int64) int64 {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// ClampLimit bounds limit to [1, max], using def when limit is not positive.
func ClampLimit(limit, def, max int64) int64 {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
