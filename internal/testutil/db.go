// Package testutil holds the MongoDB and HTTP helpers shared by package tests.
package testutil

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/indexes"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// DefaultMongoURI is used unless STRATALAW_TEST_MONGO_URI is set.
	DefaultMongoURI = "mongodb://localhost:27017"
	// DBPrefix starts every per-test database name.
	DBPrefix = "stratalaw_test"

	// MongoDB caps database names at 63 bytes.
	maxDBName = 63
)

var (
	connectOnce sync.Once
	shared      *mongo.Client
	connectErr  error
)

func mongoURI() string {
	if uri := os.Getenv("STRATALAW_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return DefaultMongoURI
}

// client connects once per test binary. Packages run in parallel, so the
// pool is sized well above the server default.
func client() (*mongo.Client, error) {
	connectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool := wafflemongo.DefaultPoolConfig()
		pool.MaxPoolSize = 200
		pool.MinPoolSize = 5
		shared, connectErr = wafflemongo.ConnectWithPool(ctx, mongoURI(), DBPrefix, pool)
	})
	return shared, connectErr
}

// SetupTestDB returns an empty database private to t with production
// indexes in place. It is dropped when t finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := client()
	if err != nil {
		t.Fatalf("connect to test MongoDB at %s: %v", mongoURI(), err)
	}
	db := c.Database(dbName(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes on %s: %v", db.Name(), err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s on cleanup: %v", db.Name(), err)
		}
	})
	return db
}

// dbName maps a test name to a legal database name. Names that would run
// past the limit keep a readable head and end in a short hash, so two long
// subtests never share a database.
func dbName(testName string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, testName)

	name := DBPrefix + "_" + clean
	if len(name) <= maxDBName {
		return name
	}
	sum := sha1.Sum([]byte(testName))
	suffix := "_" + hex.EncodeToString(sum[:])[:8]
	return name[:maxDBName-len(suffix)] + suffix
}

// TestContext returns a context for test database calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
