// internal/domain/models/blog.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogPost is a legal article. Title, content and excerpt are stored in
// every site language; public readers get them resolved to one.
type BlogPost struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   LocalizedText      `bson:"title" json:"title"`
	Content LocalizedText      `bson:"content" json:"content"` // sanitized HTML
	Excerpt LocalizedText      `bson:"excerpt" json:"excerpt"`
	Slug    string             `bson:"slug" json:"slug"`

	Published   bool       `bson:"published" json:"published"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`

	// Soft reference to the authoring admin.
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name,omitempty" json:"author_name,omitempty"`

	FeaturedImage string   `bson:"featured_image,omitempty" json:"featured_image,omitempty"` // storage path
	Tags          []string `bson:"tags" json:"tags"`

	SEOTitle       string `bson:"seo_title,omitempty" json:"seo_title,omitempty"`
	SEODescription string `bson:"seo_description,omitempty" json:"seo_description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// BlogPostView is a post with every LocalizedText resolved to one language.
type BlogPostView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Excerpt        string     `json:"excerpt"`
	Slug           string     `json:"slug"`
	AuthorName     string     `json:"author_name,omitempty"`
	FeaturedImage  string     `json:"featured_image,omitempty"`
	Tags           []string   `json:"tags"`
	SEOTitle       string     `json:"seo_title,omitempty"`
	SEODescription string     `json:"seo_description,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Resolve projects the post into lang. imageURL maps a storage path to a
// public URL and may be nil.
func (p BlogPost) Resolve(lang string, imageURL func(string) string) BlogPostView {
	img := p.FeaturedImage
	if img != "" && imageURL != nil {
		img = imageURL(img)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return BlogPostView{
		ID:             p.ID.Hex(),
		Title:          p.Title.Resolve(lang),
		Content:        p.Content.Resolve(lang),
		Excerpt:        p.Excerpt.Resolve(lang),
		Slug:           p.Slug,
		AuthorName:     p.AuthorName,
		FeaturedImage:  img,
		Tags:           tags,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		PublishedAt:    p.PublishedAt,
		CreatedAt:      p.CreatedAt,
	}
}

// NormalizeTags lowercases and trims tags, dropping blanks and repeats while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
