package contact

import (
	"net/http"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	outboxstore "github.com/dalemusser/stratalaw/internal/app/store/outbox"
	settingsstore "github.com/dalemusser/stratalaw/internal/app/store/settings"
	"github.com/dalemusser/stratalaw/internal/app/system/notify"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	settings := settingsstore.New(db)
	for k, v := range map[string]string{
		models.SettingFirmName:       "Collins K. Sang & Associates",
		models.SettingContactEmail:   "firm@example.com",
		models.SettingWhatsAppNumber: "+254 718 076 309",
	} {
		if _, err := settings.InsertIfMissing(ctx, k, v, ""); err != nil {
			t.Fatalf("seed setting %s: %v", k, err)
		}
	}

	notifier := notify.New(settings, outboxstore.New(db), notify.Config{Enabled: true}, logger)
	return NewHandler(db, notifier, nil, errorsfeature.NewErrorLogger(logger), logger), db
}

func validSubmission() map[string]any {
	return map[string]any{
		"name":     "Wanjiru Kamau",
		"email":    "wanjiru@example.com",
		"phone":    "+254 700 111 222",
		"subject":  "family-law",
		"message":  "I need advice on a custody matter.",
		"language": "sw",
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	h, db := newHandler(t)

	body := validSubmission()
	body["name"] = "Amina O'Brien"
	body["message"] = "<b>Help</b> with fees & costs"
	rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", body))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var out map[string]string
	testutil.DecodeJSON(t, rec, &out)
	if out["id"] == "" {
		t.Fatal("missing id")
	}
	if !strings.HasPrefix(out["whatsapp_url"], "https://wa.me/254718076309?text=") {
		t.Errorf("whatsapp_url = %q", out["whatsapp_url"])
	}
	if !strings.HasPrefix(out["mailto_url"], "mailto:firm@example.com?") {
		t.Errorf("mailto_url = %q", out["mailto_url"])
	}

	rec = testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodGet, "/"+out["id"], nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var sub models.ContactSubmission
	testutil.DecodeJSON(t, rec, &sub)
	if sub.Status != models.ContactNew || sub.Priority != models.PriorityMedium {
		t.Errorf("initial state = %q/%q", sub.Status, sub.Priority)
	}
	if sub.Message != "Help with fees & costs" {
		t.Errorf("Message = %q, want tags stripped and text kept", sub.Message)
	}
	if sub.Name != "Amina O'Brien" || sub.Email != "wanjiru@example.com" {
		t.Errorf("Name/Email = %q/%q, want unchanged", sub.Name, sub.Email)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	queued, err := outboxstore.New(db).List(ctx, "", 0)
	if err != nil {
		t.Fatalf("outbox List() error = %v", err)
	}
	kinds := map[string]bool{}
	for _, n := range queued {
		kinds[n.Kind] = true
	}
	if len(queued) != 2 || !kinds[models.NotifyContactFirmEmail] || !kinds[models.NotifyContactAckEmail] {
		t.Errorf("outbox = %v, want firm and ack emails", kinds)
	}
}

// The intake body is decoded strictly, so workflow fields supplied by the
// visitor are rejected rather than silently dropped.
func TestSubmit_RejectsClientStatus(t *testing.T) {
	h, _ := newHandler(t)

	body := validSubmission()
	body["status"] = "archived"
	rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", body))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestSubmit_Validation(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"missing name", "name", ""},
		{"bad email", "email", "not-an-email"},
		{"unknown language", "language", "it"},
		{"missing message", "message", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validSubmission()
			body[tt.field] = tt.value
			rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", body))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestAdmin_StatusMovesForwardOnly(t *testing.T) {
	h, _ := newHandler(t)

	rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", validSubmission()))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var out map[string]string
	testutil.DecodeJSON(t, rec, &out)

	admin := AdminRoutes(h)
	patch := func(body any) int {
		return testutil.Serve(admin, testutil.AdminRequest(t, http.MethodPatch, "/"+out["id"], body)).Code
	}

	steps := []struct {
		name string
		body map[string]string
		want int
	}{
		{"mark read", map[string]string{"status": "read"}, http.StatusNoContent},
		{"mark responded", map[string]string{"status": "responded", "priority": "high"}, http.StatusNoContent},
		{"back to new", map[string]string{"status": "new"}, http.StatusConflict},
		{"unknown priority", map[string]string{"priority": "critical"}, http.StatusBadRequest},
		{"empty patch", map[string]string{}, http.StatusBadRequest},
	}
	for _, st := range steps {
		if got := patch(st.body); got != st.want {
			t.Errorf("%s: status = %d, want %d", st.name, got, st.want)
		}
	}

	rec = testutil.Serve(admin, testutil.AdminRequest(t, http.MethodGet, "/?status=responded", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var subs []models.ContactSubmission
	testutil.DecodeJSON(t, rec, &subs)
	if len(subs) != 1 || subs[0].Priority != models.PriorityHigh {
		t.Errorf("responded list = %+v", subs)
	}

	rec = testutil.Serve(admin, testutil.AdminRequest(t, http.MethodGet, "/?status=closed", nil))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = testutil.Serve(admin, testutil.AdminRequest(t, http.MethodPatch, "/not-an-id", map[string]string{"status": "read"}))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}
