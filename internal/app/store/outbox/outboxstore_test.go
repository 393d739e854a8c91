package outboxstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func payload() models.NotificationPayload {
	return models.NotificationPayload{
		To:       "client@example.com",
		Subject:  "We received your message",
		TextBody: "Dear Wanjiru,",
	}
}

func TestStore_EnqueueAndClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subID := primitive.NewObjectID()
	id, err := store.Enqueue(ctx, models.NotifyContactAckEmail, &subID, payload(), 0)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	n, err := store.ClaimNext(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if n == nil || n.ID != id {
		t.Fatalf("ClaimNext() = %+v, want %s", n, id.Hex())
	}
	if n.Status != models.NotificationSending || n.Attempts != 1 || n.WorkerID != "worker-1" {
		t.Errorf("claimed = status %q attempts %d worker %q", n.Status, n.Attempts, n.WorkerID)
	}
	if n.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", n.MaxAttempts, DefaultMaxAttempts)
	}
	if n.SubmissionID == nil || *n.SubmissionID != subID {
		t.Error("SubmissionID not stored")
	}

	again, err := store.ClaimNext(ctx, "worker-2")
	if err != nil || again != nil {
		t.Errorf("second ClaimNext() = %+v, %v; want nil, nil", again, err)
	}

	if err := store.Complete(ctx, id); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.NotificationSent || got.SentAt == nil || got.WorkerID != "" {
		t.Errorf("after Complete = %+v", got)
	}
	if err := store.Complete(ctx, id); !errors.Is(err, ErrNotClaimed) {
		t.Errorf("second Complete() err = %v, want ErrNotClaimed", err)
	}
}

func TestStore_FailBacksOffThenFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id, err := store.Enqueue(ctx, models.NotifyContactFirmEmail, nil, payload(), 2)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if _, err := store.ClaimNext(ctx, "w"); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	before := time.Now()
	n, err := store.Fail(ctx, id, "dial tcp: refused", time.Minute)
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if n.Status != models.NotificationPending || n.LastError != "dial tcp: refused" {
		t.Errorf("after first Fail = status %q error %q", n.Status, n.LastError)
	}
	if n.NextAttemptAt.Before(before.Add(59 * time.Second)) {
		t.Errorf("NextAttemptAt = %v, want about a minute out", n.NextAttemptAt)
	}
	if c, _ := store.ClaimNext(ctx, "w"); c != nil {
		t.Error("backed-off notification should not be claimable yet")
	}

	// Pull the retry forward so the second attempt can be claimed.
	if _, err := db.Collection("notifications").UpdateByID(ctx, id,
		bson.M{"$set": bson.M{"next_attempt_at": time.Now().Add(-time.Second)}}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	c, err := store.ClaimNext(ctx, "w")
	if err != nil || c == nil || c.Attempts != 2 {
		t.Fatalf("ClaimNext() = %+v, %v; want attempts 2", c, err)
	}
	n, err = store.Fail(ctx, id, "still down", time.Minute)
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if n.Status != models.NotificationFailed {
		t.Errorf("status = %q, want failed after max attempts", n.Status)
	}

	if _, err := store.Fail(ctx, id, "again", time.Minute); !errors.Is(err, ErrNotClaimed) {
		t.Errorf("Fail() on failed notification err = %v, want ErrNotClaimed", err)
	}
}

func TestStore_Retry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id, _ := store.Enqueue(ctx, models.NotifyContactFirmEmail, nil, payload(), 1)

	if err := store.Retry(ctx, id); !errors.Is(err, storeutil.ErrInvalidTransition) {
		t.Errorf("Retry(pending) err = %v, want ErrInvalidTransition", err)
	}
	if err := store.Retry(ctx, primitive.NewObjectID()); !errors.Is(err, storeutil.ErrNotFound) {
		t.Errorf("Retry(missing) err = %v, want ErrNotFound", err)
	}

	if _, err := store.ClaimNext(ctx, "w"); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if n, err := store.Fail(ctx, id, "boom", 0); err != nil || n.Status != models.NotificationFailed {
		t.Fatalf("Fail() = %+v, %v", n, err)
	}

	if err := store.Retry(ctx, id); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	c, err := store.ClaimNext(ctx, "w")
	if err != nil || c == nil || c.ID != id {
		t.Fatalf("ClaimNext() after Retry = %+v, %v", c, err)
	}
	if c.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 after Retry reset", c.Attempts)
	}
}

func TestStore_RequeueStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fresh, _ := store.Enqueue(ctx, models.NotifyContactAckEmail, nil, payload(), 3)
	stale, _ := store.Enqueue(ctx, models.NotifyContactAckEmail, nil, payload(), 3)
	for i := 0; i < 2; i++ {
		if c, err := store.ClaimNext(ctx, "w"); err != nil || c == nil {
			t.Fatalf("ClaimNext() = %v, %v", c, err)
		}
	}
	if _, err := db.Collection("notifications").UpdateByID(ctx, stale,
		bson.M{"$set": bson.M{"claimed_at": time.Now().Add(-time.Hour)}}); err != nil {
		t.Fatalf("age claim: %v", err)
	}

	n, err := store.RequeueStale(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("RequeueStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RequeueStale() = %d, want 1", n)
	}

	got, _ := store.GetByID(ctx, stale)
	if got.Status != models.NotificationPending || got.LastError == "" {
		t.Errorf("stale = status %q error %q", got.Status, got.LastError)
	}
	got, _ = store.GetByID(ctx, fresh)
	if got.Status != models.NotificationSending {
		t.Errorf("fresh = status %q, want sending", got.Status)
	}
}

func TestStore_PruneListCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sent, _ := store.Enqueue(ctx, models.NotifyContactAckEmail, nil, payload(), 3)
	if _, err := store.ClaimNext(ctx, "w"); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if err := store.Complete(ctx, sent); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := store.Enqueue(ctx, models.NotifyContactFirmEmail, nil, payload(), 3); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[models.NotificationSent] != 1 || counts[models.NotificationPending] != 1 || counts[models.NotificationFailed] != 0 {
		t.Errorf("CountByStatus() = %v", counts)
	}

	pending, err := store.List(ctx, models.NotificationPending, 0)
	if err != nil || len(pending) != 1 {
		t.Errorf("List(pending) = %d, %v", len(pending), err)
	}

	n, err := store.PruneSent(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Errorf("PruneSent(old cutoff) = %d, %v; want 0", n, err)
	}
	n, err = store.PruneSent(ctx, time.Now().Add(time.Minute))
	if err != nil || n != 1 {
		t.Errorf("PruneSent(now) = %d, %v; want 1", n, err)
	}
	all, _ := store.List(ctx, "", 0)
	if len(all) != 1 {
		t.Errorf("List() after prune = %d, want 1", len(all))
	}
}
