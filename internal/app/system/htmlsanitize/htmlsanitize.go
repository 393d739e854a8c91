// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans admin-authored blog HTML with bluemonday before
// it is stored, so public readers can render it as-is.
package htmlsanitize

import (
	"html"
	"sync"

	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	policyOnce  sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()
		richPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		richPolicy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		richPolicy.AllowElements("u", "s", "sub", "sup", "mark")
		richPolicy.RequireNoFollowOnLinks(true)
		richPolicy.AddTargetBlankToFullyQualifiedLinks(true)

		plainPolicy = bluemonday.StrictPolicy()
	})
	return richPolicy, plainPolicy
}

// Rich keeps safe formatting (paragraphs, emphasis, lists, links, tables)
// and drops scripts, handlers and unknown tags.
func Rich(html string) string {
	if html == "" {
		return ""
	}
	p, _ := policies()
	return p.Sanitize(html)
}

// Plain strips every tag and returns the remaining text unescaped. The
// result is stored as typed and must be escaped by whatever renders it.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	_, p := policies()
	return html.UnescapeString(p.Sanitize(s))
}

// RichText applies Rich to every language of t.
func RichText(t models.LocalizedText) models.LocalizedText {
	return t.Map(Rich)
}

// PlainText applies Plain to every language of t.
func PlainText(t models.LocalizedText) models.LocalizedText {
	return t.Map(Plain)
}
