package dashboard

import (
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	blogstore "github.com/dalemusser/stratalaw/internal/app/store/blog"
	contactstore "github.com/dalemusser/stratalaw/internal/app/store/contact"
	testimonialstore "github.com/dalemusser/stratalaw/internal/app/store/testimonials"
	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.uber.org/zap"
)

func TestOverview_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, errorsfeature.NewErrorLogger(zap.NewNop()))

	rec := testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got Overview
	testutil.DecodeJSON(t, rec, &got)
	if got.Posts.Total != 0 || got.PracticeAreas != 0 || got.FailedLogins24h != 0 {
		t.Errorf("overview = %+v", got)
	}
	if _, ok := got.Contact["new"]; !ok {
		t.Errorf("contact counts should list every status: %v", got.Contact)
	}
	if got.IntakeTraffic24h == nil {
		t.Error("intake traffic should be an empty list, not null")
	}
}

func TestOverview_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	posts := blogstore.New(db)
	for i, title := range []string{"Land Registration", "Succession Basics", "Bail Terms"} {
		_, err := posts.Create(ctx, blogstore.CreateInput{
			Title:     models.LocalizedText{EN: title},
			Content:   models.LocalizedText{EN: "Body"},
			Published: i > 0,
		})
		if err != nil {
			t.Fatalf("Create(%q) error = %v", title, err)
		}
	}
	if _, err := contactstore.New(db).Create(ctx, contactstore.CreateInput{
		Name: "Wanjiru", Email: "wanjiru@example.com", Subject: "family-law", Message: "Custody question", Language: "en",
	}); err != nil {
		t.Fatalf("contact Create() error = %v", err)
	}
	if _, err := testimonialstore.New(db).Submit(ctx, testimonialstore.SubmitInput{
		ClientName: "Kamau", CaseType: "Employment", Content: "Very thorough.", Rating: 5, Language: "en",
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	audit := auditstore.New(db)
	for _, ev := range []string{auditstore.EventLoginFailedWrongPassword, auditstore.EventLoginFailedUserNotFound, auditstore.EventLoginSuccess} {
		e := auditstore.Event{Category: auditstore.CategoryAuth, EventType: ev, Success: ev == auditstore.EventLoginSuccess}
		if err := audit.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	old := auditstore.Event{
		Category: auditstore.CategoryAuth, EventType: auditstore.EventLoginFailedWrongPassword,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	if err := audit.Log(ctx, old); err != nil {
		t.Fatalf("Log(old) error = %v", err)
	}
	if err := trafficstore.New(db).Record(ctx, trafficstore.EndpointContact, time.Hour, 12, false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	h := NewHandler(db, errorsfeature.NewErrorLogger(zap.NewNop()))
	rec := testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got Overview
	testutil.DecodeJSON(t, rec, &got)
	if got.Posts != (postCounts{Total: 3, Published: 2, Drafts: 1}) {
		t.Errorf("Posts = %+v", got.Posts)
	}
	if got.Contact["new"] != 1 || got.Testimonials["pending"] != 1 {
		t.Errorf("Contact = %v, Testimonials = %v", got.Contact, got.Testimonials)
	}
	if got.FailedLogins24h != 2 {
		t.Errorf("FailedLogins24h = %d, want 2", got.FailedLogins24h)
	}
	if len(got.IntakeTraffic24h) != 1 || got.IntakeTraffic24h[0].Requests != 1 {
		t.Errorf("IntakeTraffic24h = %+v", got.IntakeTraffic24h)
	}
}
