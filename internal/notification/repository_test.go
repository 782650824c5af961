package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gatherle/notification-service/internal/database/dbtest"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(dbtest.New(t))
}

func seed(t *testing.T, repo *Repository, recipientID string, createdAt time.Time) *Notification {
	t.Helper()

	n, created, err := repo.Create(context.Background(), &Notification{
		Type:           string(NotificationTypeFollowReceived),
		ActorID:        "actor-1",
		RecipientID:    recipientID,
		Message:        "someone followed you",
		Channel:        ChannelInApp,
		IdempotencyKey: fmt.Sprintf("%s-%d", recipientID, createdAt.UnixNano()),
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !created {
		t.Fatal("seed: notification unexpectedly deduplicated")
	}
	return n
}

func TestRepositoryCreateAndGet(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	refID, refType := "event-9", "EVENT"

	created, ok, err := repo.Create(ctx, &Notification{
		Type:           string(NotificationTypeEventCancelled),
		ActorID:        "org-1",
		RecipientID:    "user-1",
		ReferenceID:    &refID,
		ReferenceType:  &refType,
		Message:        "Your event was cancelled",
		Channel:        ChannelInApp,
		IdempotencyKey: "key-1",
		CreatedAt:      baseTime,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !ok || created.ID == 0 {
		t.Fatalf("Create: got id=%d created=%v", created.ID, ok)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID: got nil")
	}
	if got.Type != "EVENT_CANCELLED" || got.RecipientID != "user-1" || got.ActorID != "org-1" {
		t.Errorf("fields: got %+v", got)
	}
	if got.ReferenceID == nil || *got.ReferenceID != refID {
		t.Errorf("ReferenceID: got %v, want %q", got.ReferenceID, refID)
	}
	if got.IsRead || got.ReadAt != nil {
		t.Errorf("read state: got read=%v readAt=%v, want unread", got.IsRead, got.ReadAt)
	}
	if got.Channel != ChannelInApp {
		t.Errorf("Channel: got %q, want %q", got.Channel, ChannelInApp)
	}
	if !got.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, baseTime)
	}
}

func TestRepositoryGetByIDUnknown(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	got, err := repo.GetByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestRepositoryCreateDeduplicatesByKey(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	n := &Notification{
		Type:           string(NotificationTypeMention),
		ActorID:        "a",
		RecipientID:    "r",
		Message:        "you were mentioned",
		Channel:        ChannelInApp,
		IdempotencyKey: "same-key",
		CreatedAt:      baseTime,
	}

	first, created, err := repo.Create(ctx, n)
	if err != nil || !created {
		t.Fatalf("first Create: created=%v err=%v", created, err)
	}

	again := *n
	again.CreatedAt = baseTime.Add(time.Minute)
	second, created, err := repo.Create(ctx, &again)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if created {
		t.Error("second Create: created=true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("ID: got %d, want %d", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt changed on duplicate: got %v", second.CreatedAt)
	}

	_, total, err := repo.ListByRecipientID(ctx, "r", 10, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("total: got %d, want 1", total)
	}
}

func TestRepositoryListOrderingAndPaging(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	older := seed(t, repo, "r1", baseTime)
	tieA := seed(t, repo, "r1", baseTime.Add(time.Hour))
	tieB, _, err := repo.Create(ctx, &Notification{
		Type: "MENTION", ActorID: "a", RecipientID: "r1", Message: "m",
		Channel: ChannelInApp, IdempotencyKey: "tie-b", CreatedAt: baseTime.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	seed(t, repo, "someone-else", baseTime.Add(2*time.Hour))

	items, total, err := repo.ListByRecipientID(ctx, "r1", 10, 0, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Fatalf("total: got %d, want 3", total)
	}

	want := []int64{tieB.ID, tieA.ID, older.ID}
	for i, n := range items {
		if n.ID != want[i] {
			t.Errorf("items[%d]: got id %d, want %d", i, n.ID, want[i])
		}
	}

	page, _, err := repo.ListByRecipientID(ctx, "r1", 2, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != older.ID {
		t.Errorf("second page: got %d items", len(page))
	}
}

func TestRepositoryMarkAsRead(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()
	n := seed(t, repo, "r1", baseTime)

	readAt := baseTime.Add(5 * time.Minute)
	got, err := repo.MarkAsRead(ctx, n.ID, readAt)
	if err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if !got.IsRead || got.ReadAt == nil || !got.ReadAt.Equal(readAt) {
		t.Fatalf("after first read: got read=%v readAt=%v", got.IsRead, got.ReadAt)
	}

	again, err := repo.MarkAsRead(ctx, n.ID, readAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("second MarkAsRead: %v", err)
	}
	if !again.ReadAt.Equal(readAt) {
		t.Errorf("readAt changed: got %v, want %v", again.ReadAt, readAt)
	}

	missing, err := repo.MarkAsRead(ctx, 999, readAt)
	if err != nil {
		t.Fatalf("MarkAsRead unknown: %v", err)
	}
	if missing != nil {
		t.Errorf("unknown id: got %+v, want nil", missing)
	}
}

func TestRepositoryMarkAsReadNeverPrecedesCreation(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	n := seed(t, repo, "r1", baseTime)

	got, err := repo.MarkAsRead(context.Background(), n.ID, baseTime.Add(-time.Minute))
	if err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if got.ReadAt.Before(got.CreatedAt) {
		t.Errorf("readAt %v precedes createdAt %v", got.ReadAt, got.CreatedAt)
	}
}

func TestRepositoryMarkAllAsRead(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	first := seed(t, repo, "r1", baseTime)
	seed(t, repo, "r1", baseTime.Add(time.Minute))
	seed(t, repo, "r1", baseTime.Add(2*time.Minute))
	other := seed(t, repo, "r2", baseTime)
	if _, err := repo.MarkAsRead(ctx, first.ID, baseTime.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	at := baseTime.Add(time.Hour)
	updated, err := repo.MarkAllAsRead(ctx, "r1", at)
	if err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated: got %d, want 2", updated)
	}

	count, err := repo.GetUnreadCount(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("unread after read-all: got %d, want 0", count)
	}

	kept, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !kept.ReadAt.Equal(baseTime.Add(time.Second)) {
		t.Errorf("already read notification changed readAt: %v", kept.ReadAt)
	}

	untouched, err := repo.GetByID(ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if untouched.IsRead {
		t.Error("other recipient's notification was marked read")
	}

	again, err := repo.MarkAllAsRead(ctx, "r1", at)
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Errorf("second read-all: got %d, want 0", again)
	}
}

func TestRepositoryMarkAllAsReadSkipsLaterRows(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	seed(t, repo, "r1", baseTime)
	late := seed(t, repo, "r1", baseTime.Add(time.Hour))

	updated, err := repo.MarkAllAsRead(ctx, "r1", baseTime.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if updated != 1 {
		t.Errorf("updated: got %d, want 1", updated)
	}

	got, err := repo.GetByID(ctx, late.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsRead {
		t.Error("notification created after the bulk update was marked read")
	}
}
