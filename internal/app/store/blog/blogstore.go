// internal/app/store/blog/blogstore.go
package blogstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	SearchLimit  = 10
)

var (
	// ErrDuplicateSlug is returned when another post already uses the slug.
	ErrDuplicateSlug = storeutil.Kind(storeutil.ErrDuplicate, "slug already in use")
	// ErrEmptySlug is returned when the slug source has no letters or digits.
	ErrEmptySlug = storeutil.Kind(storeutil.ErrInvalidValue, "slug is empty: the title needs letters or digits")
	// ErrMissingEnglish is returned when title or content lacks English text.
	ErrMissingEnglish = storeutil.Kind(storeutil.ErrInvalidValue, "title and content need English text")
)

// Store provides access to the blog_posts collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new blog store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("blog_posts")}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.BlogPost, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.BlogPost{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublished returns published posts, newest first. limit is clamped to
// [1, MaxLimit] with DefaultLimit for non-positive values.
func (s *Store) ListPublished(ctx context.Context, limit int64) ([]models.BlogPost, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(storeutil.ClampLimit(limit, DefaultLimit, MaxLimit))
	return s.find(ctx, bson.M{"published": true}, opts)
}

// GetPublishedBySlug returns the published post with slug. Drafts are
// reported as storeutil.ErrNotFound.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var p models.BlogPost
	err := s.c.FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&p)
	if err != nil {
		return models.BlogPost{}, storeutil.NotFoundIfNoDocs(err)
	}
	return p, nil
}

// SearchPublished runs a text search over English titles of published
// posts, best match first, at most SearchLimit results.
func (s *Store) SearchPublished(ctx context.Context, query string) ([]models.BlogPost, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.BlogPost{}, nil
	}
	filter := bson.M{
		"$text":     bson.M{"$search": query},
		"published": true,
	}
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}, {Key: "created_at", Value: -1}}).
		SetLimit(SearchLimit)
	return s.find(ctx, filter, opts)
}

// ListAll returns every post, drafts included, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.BlogPost, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

// GetByID returns a post by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.BlogPost, error) {
	var p models.BlogPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.BlogPost{}, storeutil.NotFoundIfNoDocs(err)
	}
	return p, nil
}

// CreateInput holds the fields for a new post. Slug is optional and
// derived from the English title when blank.
type CreateInput struct {
	Title          models.LocalizedText
	Content        models.LocalizedText
	Excerpt        models.LocalizedText
	Slug           string
	Published      bool
	Tags           []string
	FeaturedImage  string
	SEOTitle       string
	SEODescription string
	AuthorID       primitive.ObjectID
	AuthorName     string
}

// Create inserts a new post.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.BlogPost, error) {
	title := in.Title.Trimmed()
	content := in.Content.Trimmed()
	if !title.HasEN() || !content.HasEN() {
		return models.BlogPost{}, ErrMissingEnglish
	}

	slugSrc := in.Slug
	if strings.TrimSpace(slugSrc) == "" {
		slugSrc = title.EN
	}
	slug := models.Slugify(slugSrc)
	if slug == "" {
		return models.BlogPost{}, ErrEmptySlug
	}

	now := time.Now().UTC()
	p := models.BlogPost{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Content:        content,
		Excerpt:        in.Excerpt.Trimmed(),
		Slug:           slug,
		Published:      in.Published,
		AuthorID:       in.AuthorID,
		AuthorName:     strings.TrimSpace(in.AuthorName),
		FeaturedImage:  in.FeaturedImage,
		Tags:           models.NormalizeTags(in.Tags),
		SEOTitle:       strings.TrimSpace(in.SEOTitle),
		SEODescription: strings.TrimSpace(in.SEODescription),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Published {
		p.PublishedAt = &now
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.BlogPost{}, ErrDuplicateSlug
		}
		return models.BlogPost{}, err
	}
	return p, nil
}

// UpdateInput is a partial patch; nil fields are left unchanged.
type UpdateInput struct {
	Title          *models.LocalizedText
	Content        *models.LocalizedText
	Excerpt        *models.LocalizedText
	Slug           *string
	Tags           *[]string
	SEOTitle       *string
	SEODescription *string
}

// Update applies a partial patch to the post with id.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if in.Title != nil {
		t := in.Title.Trimmed()
		if !t.HasEN() {
			return ErrMissingEnglish
		}
		set["title"] = t
	}
	if in.Content != nil {
		c := in.Content.Trimmed()
		if !c.HasEN() {
			return ErrMissingEnglish
		}
		set["content"] = c
	}
	if in.Excerpt != nil {
		set["excerpt"] = in.Excerpt.Trimmed()
	}
	if in.Slug != nil {
		slug := models.Slugify(*in.Slug)
		if slug == "" {
			return ErrEmptySlug
		}
		set["slug"] = slug
	}
	if in.Tags != nil {
		set["tags"] = models.NormalizeTags(*in.Tags)
	}
	if in.SEOTitle != nil {
		set["seo_title"] = strings.TrimSpace(*in.SEOTitle)
	}
	if in.SEODescription != nil {
		set["seo_description"] = strings.TrimSpace(*in.SEODescription)
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	if res.MatchedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}

// SetPublished publishes or unpublishes a post. published_at is set the
// first time a post is published and kept afterwards.
func (s *Store) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) error {
	now := time.Now().UTC()
	set := bson.D{
		{Key: "published", Value: published},
		{Key: "updated_at", Value: now},
	}
	if published {
		set = append(set, bson.E{Key: "published_at", Value: bson.M{"$ifNull": bson.A{"$published_at", now}}})
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storeutil.ErrNotFound
	}
	return nil
}

// SetFeaturedImage stores a new image path and returns the previous one so
// the caller can delete the old file.
func (s *Store) SetFeaturedImage(ctx context.Context, id primitive.ObjectID, path string) (previous string, err error) {
	var before struct {
		FeaturedImage string `bson:"featured_image"`
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"featured_image": 1})
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"featured_image": path, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&before)
	if err != nil {
		return "", storeutil.NotFoundIfNoDocs(err)
	}
	return before.FeaturedImage, nil
}

// Counts returns the total and published number of posts.
func (s *Store) Counts(ctx context.Context) (total, published int64, err error) {
	total, err = s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	published, err = s.c.CountDocuments(ctx, bson.M{"published": true})
	if err != nil {
		return 0, 0, err
	}
	return total, published, nil
}
