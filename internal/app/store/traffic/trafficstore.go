// internal/app/store/traffic/trafficstore.go
package trafficstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection for endpoint traffic buckets.
const CollectionName = "traffic_stats"

// Endpoint names a public endpoint whose traffic is counted.
type Endpoint string

const (
	EndpointContact     Endpoint = "contact_submit"
	EndpointTestimonial Endpoint = "testimonial_submit"
	EndpointWebhook     Endpoint = "webhook"
)

// Bucket aggregates requests to one endpoint over one time window.
type Bucket struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Bucket         time.Time          `bson:"bucket"`
	BucketDuration string             `bson:"bucket_duration"`
	Endpoint       Endpoint           `bson:"endpoint"`
	Requests       int64              `bson:"requests"`
	Errors         int64              `bson:"errors"` // 4xx and 5xx
	TotalMs        int64              `bson:"total_ms"`
	MinMs          int64              `bson:"min_ms"`
	MaxMs          int64              `bson:"max_ms"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// TruncateToBucket returns the start of the bucket containing t.
func TruncateToBucket(t time.Time, d time.Duration) time.Time {
	return t.UTC().Truncate(d)
}

// Record adds one request to the current bucket, creating it when needed.
func (s *Store) Record(ctx context.Context, ep Endpoint, bucketDuration time.Duration, durationMs int64, isError bool) error {
	now := time.Now().UTC()
	inc := bson.M{"requests": 1, "total_ms": durationMs}
	if isError {
		inc["errors"] = 1
	}

	// $min/$max cover the insert case too, so min_ms/max_ms stay out of $setOnInsert.
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
		"$min": bson.M{"min_ms": durationMs},
		"$max": bson.M{"max_ms": durationMs},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{
		"bucket":          TruncateToBucket(now, bucketDuration),
		"endpoint":        ep,
		"bucket_duration": bucketDuration.String(),
	}, update, options.Update().SetUpsert(true))
	return err
}

// Summary totals one endpoint's traffic over a range.
type Summary struct {
	Endpoint Endpoint `json:"endpoint"`
	Requests int64    `json:"requests"`
	Errors   int64    `json:"errors"`
	AvgMs    float64  `json:"avg_ms"`
	MaxMs    int64    `json:"max_ms"`
}

// Summarize returns per-endpoint totals for buckets starting at or after
// since, ordered by endpoint name.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bucket": bson.M{"$gte": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$endpoint",
			"requests": bson.M{"$sum": "$requests"},
			"errors":   bson.M{"$sum": "$errors"},
			"total_ms": bson.M{"$sum": "$total_ms"},
			"max_ms":   bson.M{"$max": "$max_ms"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var doc struct {
			ID       string `bson:"_id"`
			Requests int64  `bson:"requests"`
			Errors   int64  `bson:"errors"`
			TotalMs  int64  `bson:"total_ms"`
			MaxMs    int64  `bson:"max_ms"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		sum := Summary{Endpoint: Endpoint(doc.ID), Requests: doc.Requests, Errors: doc.Errors, MaxMs: doc.MaxMs}
		if doc.Requests > 0 {
			sum.AvgMs = float64(doc.TotalMs) / float64(doc.Requests)
		}
		out = append(out, sum)
	}
	return out, cur.Err()
}

// DeleteOlderThan removes buckets that started before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"bucket": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
