package settingsstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Get_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "phone"); !errors.Is(err, storeutil.ErrNotFound) {
		t.Errorf("Get() err = %v, want ErrNotFound", err)
	}
	v, err := store.Value(ctx, "phone")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != nil {
		t.Errorf("Value() = %v, want nil for absent key", v)
	}
}

func TestStore_Upsert_InsertThenUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	desc := "Main office line"
	id1, err := store.Upsert(ctx, UpsertInput{Key: "phone", Value: "+254 718 076 309", Description: &desc})
	if err != nil {
		t.Fatalf("Upsert() insert error = %v", err)
	}
	first, err := store.Get(ctx, "phone")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	adminID := primitive.NewObjectID()
	id2, err := store.Upsert(ctx, UpsertInput{Key: "phone", Value: "+254 700 000 000", UpdatedByID: &adminID, UpdatedByName: "Admin"})
	if err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("Upsert() changed _id: %s -> %s", id1.Hex(), id2.Hex())
	}

	second, err := store.Get(ctx, "phone")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if second.Value != "+254 700 000 000" {
		t.Errorf("Value = %v", second.Value)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.Description != desc {
		t.Errorf("Description = %q, want it kept", second.Description)
	}
	if second.UpdatedByID == nil || *second.UpdatedByID != adminID {
		t.Error("UpdatedByID not recorded")
	}

	count, err := db.Collection("site_settings").CountDocuments(ctx, map[string]any{"key": "phone"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("documents for key = %d, want 1", count)
	}
}

func TestStore_Upsert_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		in    UpsertInput
		valid bool
	}{
		{"string", UpsertInput{Key: "a", Value: "x"}, true},
		{"number", UpsertInput{Key: "b", Value: 3.0}, true},
		{"bool", UpsertInput{Key: "c", Value: false}, true},
		{"empty object", UpsertInput{Key: "d", Value: map[string]any{}}, true},
		{"blank key", UpsertInput{Key: "  ", Value: "x"}, false},
		{"nil value", UpsertInput{Key: "e", Value: nil}, false},
		{"array", UpsertInput{Key: "f", Value: []any{1}}, false},
		{"object", UpsertInput{Key: "g", Value: map[string]any{"a": 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Upsert(ctx, tt.in)
			if tt.valid && err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
			if !tt.valid && !errors.Is(err, storeutil.ErrInvalidValue) {
				t.Errorf("Upsert() err = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestStore_All(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for k, v := range map[string]any{"firm_name": "Sang & Associates", "years": 12.0, "open": true, "extra": map[string]any{}} {
		if _, err := store.Upsert(ctx, UpsertInput{Key: k, Value: v}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", k, err)
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("All() len = %d, want 4", len(all))
	}
	if all["firm_name"] != "Sang & Associates" {
		t.Errorf("firm_name = %v", all["firm_name"])
	}
	if all["open"] != true {
		t.Errorf("open = %v", all["open"])
	}
	if m, ok := all["extra"].(primitive.M); !ok || len(m) != 0 {
		t.Errorf("extra = %#v, want empty object", all["extra"])
	}
}

func TestStore_InsertIfMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inserted, err := store.InsertIfMissing(ctx, "office_hours", "Mon-Fri", "Hours")
	if err != nil || !inserted {
		t.Fatalf("InsertIfMissing() = %v, %v; want inserted", inserted, err)
	}
	if _, err := store.Upsert(ctx, UpsertInput{Key: "office_hours", Value: "By appointment"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	inserted, err = store.InsertIfMissing(ctx, "office_hours", "Mon-Fri", "Hours")
	if err != nil || inserted {
		t.Fatalf("InsertIfMissing() second = %v, %v; want not inserted", inserted, err)
	}
	v, _ := store.Value(ctx, "office_hours")
	if v != "By appointment" {
		t.Errorf("admin edit overwritten: %v", v)
	}
}
