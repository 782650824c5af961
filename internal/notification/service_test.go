package notification

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupService(t *testing.T, now time.Time) (*Service, *Repository) {
	t.Helper()
	repo := setupRepository(t)
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestServiceRejectsInvalidPaging(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, baseTime)
	tests := []struct {
		name       string
		page, size int
	}{
		{name: "negative page", page: -1, size: 20},
		{name: "zero size", page: 0, size: 0},
		{name: "size above max", page: 0, size: MaxPageSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ListNotifications(context.Background(), "r1", tt.page, tt.size); !errors.Is(err, ErrInvalidPage) {
				t.Errorf("ListNotifications: got %v, want %v", err, ErrInvalidPage)
			}
			if _, err := svc.ListUnread(context.Background(), "r1", tt.page, tt.size); !errors.Is(err, ErrInvalidPage) {
				t.Errorf("ListUnread: got %v, want %v", err, ErrInvalidPage)
			}
		})
	}
}

func TestServiceListPageMetadata(t *testing.T) {
	t.Parallel()

	svc, repo := setupService(t, baseTime.Add(time.Hour))
	for i := 0; i < 5; i++ {
		seed(t, repo, "r1", baseTime.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.ListNotifications(context.Background(), "r1", 1, 2)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 || page.Page != 1 || page.Size != 2 {
		t.Errorf("meta: got page=%d size=%d total=%d pages=%d", page.Page, page.Size, page.Total, page.TotalPages)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(page.Items))
	}
	if !page.Items[0].CreatedAt.Equal(baseTime.Add(2 * time.Minute)) {
		t.Errorf("first item of page 1: got createdAt %v", page.Items[0].CreatedAt)
	}

	beyond, err := svc.ListNotifications(context.Background(), "r1", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond.Items) != 0 {
		t.Errorf("page past the end: got %d items, want 0", len(beyond.Items))
	}
}

func TestServiceUnreadCountMatchesUnreadList(t *testing.T) {
	t.Parallel()

	svc, repo := setupService(t, baseTime.Add(time.Hour))
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 4; i++ {
		ids = append(ids, seed(t, repo, "r1", baseTime.Add(time.Duration(i)*time.Second)).ID)
	}
	if _, err := svc.MarkAsRead(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}

	count, err := svc.UnreadCount(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	unread, err := svc.ListUnread(ctx, "r1", 0, MaxPageSize)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || unread.Total != count || len(unread.Items) != count {
		t.Errorf("count=%d total=%d items=%d, want all 3", count, unread.Total, len(unread.Items))
	}
	for _, n := range unread.Items {
		if n.IsRead {
			t.Errorf("unread list contains read notification %d", n.ID)
		}
	}
}

func TestServiceMarkAsRead(t *testing.T) {
	t.Parallel()

	now := baseTime.Add(time.Hour)
	svc, repo := setupService(t, now)
	ctx := context.Background()
	n := seed(t, repo, "r1", baseTime)

	t.Run("unknown id", func(t *testing.T) {
		if _, err := svc.MarkAsRead(ctx, n.ID+100); !errors.Is(err, ErrNotificationNotFound) {
			t.Errorf("got %v, want %v", err, ErrNotificationNotFound)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := svc.MarkAsRead(ctx, n.ID)
		if err != nil {
			t.Fatal(err)
		}
		svc.now = func() time.Time { return now.Add(time.Hour) }
		second, err := svc.MarkAsRead(ctx, n.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !first.ReadAt.Equal(now) || !second.ReadAt.Equal(now) {
			t.Errorf("readAt: got %v then %v, want %v", first.ReadAt, second.ReadAt, now)
		}
	})
}

func TestServiceMarkAllAsRead(t *testing.T) {
	t.Parallel()

	svc, repo := setupService(t, baseTime.Add(time.Hour))
	ctx := context.Background()
	seed(t, repo, "r1", baseTime)
	seed(t, repo, "r1", baseTime.Add(time.Second))

	updated, err := svc.MarkAllAsRead(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if updated != 2 {
		t.Errorf("updated: got %d, want 2", updated)
	}

	count, err := svc.UnreadCount(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("unread: got %d, want 0", count)
	}
}

func TestServiceGetByID(t *testing.T) {
	t.Parallel()

	svc, repo := setupService(t, baseTime)
	n := seed(t, repo, "r1", baseTime)

	got, err := svc.GetByID(context.Background(), n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != n.ID {
		t.Errorf("ID: got %d, want %d", got.ID, n.ID)
	}

	if _, err := svc.GetByID(context.Background(), n.ID+1); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("unknown: got %v, want %v", err, ErrNotificationNotFound)
	}
}
