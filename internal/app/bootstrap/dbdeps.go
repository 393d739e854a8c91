// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratalaw/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends created in ConnectDB and passed to every later
// lifecycle hook. Shutdown closes them.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis backs the public read cache; nil when redis_addr is blank.
	Redis *redis.Client

	// FileStorage holds featured images and client documents.
	FileStorage storage.Store

	// Mailer delivers queued notifications.
	Mailer *mailer.Mailer
}
