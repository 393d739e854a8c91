package auditstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := primitive.NewObjectID()
	events := []Event{
		{Category: CategoryAuth, EventType: EventLoginSuccess, UserID: &admin, IP: "10.0.0.1", Success: true},
		{Category: CategoryAuth, EventType: EventLoginFailedWrongPassword, IP: "10.0.0.2", FailureReason: "wrong password"},
		{Category: CategoryAdmin, EventType: EventPostCreated, ActorID: &admin, IP: "10.0.0.1", Success: true,
			Details: map[string]string{"slug": "bail-basics"}},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 3},
		{"auth", QueryFilter{Category: CategoryAuth}, 2},
		{"admin", QueryFilter{Category: CategoryAdmin}, 1},
		{"event type", QueryFilter{EventType: EventLoginSuccess}, 1},
		{"user", QueryFilter{UserID: &admin}, 1},
		{"actor", QueryFilter{ActorID: &admin}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"offset", QueryFilter{Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Query() = %d events, want %d", len(got), tt.want)
			}
		})
	}

	latest, _ := store.Query(ctx, QueryFilter{Limit: 1})
	if len(latest) != 1 || latest[0].EventType != EventPostCreated {
		t.Fatalf("Query() not newest first: %+v", latest)
	}
	if latest[0].Details["slug"] != "bail-basics" {
		t.Errorf("Details = %v", latest[0].Details)
	}

	n, err := store.Count(ctx, QueryFilter{Category: CategoryAuth})
	if err != nil || n != 2 {
		t.Errorf("Count(auth) = %d, %v", n, err)
	}
	n, err = store.FailedLoginsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 1 {
		t.Errorf("FailedLoginsSince() = %d, %v", n, err)
	}
}

func TestStore_QueryTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().Add(-48 * time.Hour).UTC()
	_ = store.Log(ctx, Event{Category: CategoryAuth, EventType: EventLogout, CreatedAt: old})
	_ = store.Log(ctx, Event{Category: CategoryAuth, EventType: EventLogout})

	since := time.Now().Add(-time.Hour)
	got, err := store.Query(ctx, QueryFilter{StartTime: &since})
	if err != nil || len(got) != 1 {
		t.Errorf("Query(since) = %d, %v; want 1", len(got), err)
	}
	until := time.Now().Add(-24 * time.Hour)
	got, err = store.Query(ctx, QueryFilter{EndTime: &until})
	if err != nil || len(got) != 1 {
		t.Errorf("Query(until) = %d, %v; want 1", len(got), err)
	}

	deleted, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || deleted != 1 {
		t.Errorf("DeleteOlderThan() = %d, %v; want 1", deleted, err)
	}
}

func TestEventTypeLists(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range append(AuthEventTypes(), AdminEventTypes()...) {
		if seen[e] {
			t.Errorf("duplicate event type %q", e)
		}
		seen[e] = true
	}
}
