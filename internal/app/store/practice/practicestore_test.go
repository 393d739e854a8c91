package practicestore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func area(title string, order int) CreateInput {
	return CreateInput{
		Title:       models.LocalizedText{EN: title},
		Description: models.LocalizedText{EN: title + " matters"},
		Icon:        "⚖️",
		Order:       order,
	}
}

func TestStore_CreateIsActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, area("Civil Litigation", 1))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !a.Active {
		t.Error("new practice area should be active")
	}

	bad := area("x", 2)
	bad.Description = models.LocalizedText{FR: "seulement"}
	if _, err := store.Create(ctx, bad); !errors.Is(err, storeutil.ErrInvalidValue) {
		t.Errorf("missing en: err = %v", err)
	}
}

func TestStore_ListActiveByOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, _ := store.Create(ctx, area("Corporate", 3))
	if _, err := store.Create(ctx, area("Criminal", 2)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, area("Civil", 1)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	inactive := false
	if err := store.Update(ctx, c.ID, UpdateInput{Active: &inactive}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 || active[0].Title.EN != "Civil" || active[1].Title.EN != "Criminal" {
		t.Errorf("ListActive() = %+v", active)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 || all[2].Title.EN != "Corporate" || all[2].Active {
		t.Errorf("ListAll() = %+v", all)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, area("Family Law", 5))
	order := 1
	title := models.LocalizedText{EN: "Family Law", SW: "Sheria ya Familia"}
	if err := store.Update(ctx, a.ID, UpdateInput{Order: &order, Title: &title}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Order != 1 || got.Title.SW != "Sheria ya Familia" {
		t.Errorf("after Update: %+v", got)
	}

	if err := store.Update(ctx, primitive.NewObjectID(), UpdateInput{Order: &order}); !errors.Is(err, storeutil.ErrNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, storeutil.ErrNotFound) {
		t.Errorf("GetByID(missing) err = %v", err)
	}

	ok, err := store.ExistsWithEnglishTitle(ctx, "Family Law")
	if err != nil || !ok {
		t.Errorf("ExistsWithEnglishTitle() = %v, %v", ok, err)
	}
}
