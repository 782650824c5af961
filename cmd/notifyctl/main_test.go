package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gatherle/notification-service/internal/database"
	"github.com/gatherle/notification-service/internal/delivery"
	"github.com/gatherle/notification-service/internal/ingest"
	"github.com/gatherle/notification-service/internal/notification"
)

// setupEnv points the CLI at a fresh SQLite file and, when withRedis is set, a miniredis transport
func setupEnv(t *testing.T, withRedis bool) (dbPath string, mr *miniredis.Miniredis) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "notifications.db")
	t.Setenv("DATABASE_DRIVER", database.DriverSQLite)
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("TRANSPORT", "memory")

	if withRedis {
		mr = miniredis.RunT(t)
		t.Setenv("TRANSPORT", "redis")
		t.Setenv("REDIS_URL", "redis://"+mr.Addr()+"/0")
	}
	return dbPath, mr
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedFailedDelivery stores a notification and a FAILED delivery log for it
func seedFailedDelivery(t *testing.T, dbPath string) (*notification.Notification, *delivery.Log) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	n, _, err := notification.NewRepository(db).Create(ctx, &notification.Notification{
		Type:           string(notification.NotificationTypeEventUpdated),
		ActorID:        "org-1",
		RecipientID:    "user-3",
		Message:        "Venue changed",
		Channel:        notification.ChannelInApp,
		IdempotencyKey: "seed-1",
		CreatedAt:      now,
	})
	if err != nil {
		t.Fatal(err)
	}

	errMsg := "smtp timeout"
	l := &delivery.Log{
		NotificationID: n.ID,
		Channel:        notification.ChannelEmail,
		Status:         delivery.StatusFailed,
		AttemptCount:   3,
		ErrorMessage:   &errMsg,
		CreatedAt:      now,
		LastAttemptAt:  &now,
	}
	if err := delivery.NewRepository(db).Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	return n, l
}

func TestMigrateAndList(t *testing.T) {
	dbPath, _ := setupEnv(t, false)

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Migrations applied") {
		t.Errorf("migrate output: %q", out)
	}
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	_, l := seedFailedDelivery(t, dbPath)

	out, err = run(t, "deliveries", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "smtp timeout") || !strings.Contains(out, "FAILED") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = run(t, "deliveries", "list", "--status", "failed", "--json")
	if err != nil {
		t.Fatalf("list json: %v", err)
	}
	var logs []delivery.LogResponse
	if err := json.Unmarshal([]byte(out), &logs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(logs) != 1 || logs[0].ID != l.ID || logs[0].AttemptCount != 3 {
		t.Errorf("list json: got %+v", logs)
	}

	out, err = run(t, "deliveries", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "FAILED     1") || !strings.Contains(out, "DELIVERED  0") {
		t.Errorf("stats output:\n%s", out)
	}

	if _, err := run(t, "deliveries", "list", "--status", "LOST"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestPublish(t *testing.T) {
	_, mr := setupEnv(t, true)

	out, err := run(t, "publish", "events",
		"--type", "EVENT_CANCELLED", "--actor", "org-1", "--recipient", "user-1",
		"--reference-id", "event-4", "--message", "Hike cancelled")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(out, string(ingest.TopicEvents)) {
		t.Errorf("publish output: %q", out)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	entries, err := client.XRange(context.Background(), string(ingest.TopicEvents), "-", "+").Result()
	if err != nil || len(entries) != 1 {
		t.Fatalf("stream entries: got %d (%v), want 1", len(entries), err)
	}
	payload, _ := entries[0].Values["payload"].(string)
	req, err := ingest.ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("published payload %q: %v", payload, err)
	}
	if req.ReferenceID == nil || *req.ReferenceID != "event-4" || req.RecipientID != "user-1" {
		t.Errorf("published request: got %+v", req)
	}
}

func TestPublishRejects(t *testing.T) {
	setupEnv(t, true)

	tests := map[string][]string{
		"unknown topic":  {"publish", "billing", "--payload", `{"type":"MENTION","actorId":"a","recipientId":"r","message":"m"}`},
		"invalid event":  {"publish", "social", "--type", "MENTION"},
		"malformed json": {"publish", "org", "--payload", "{"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := run(t, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPublishNeedsRedis(t *testing.T) {
	setupEnv(t, false)

	_, err := run(t, "publish", "social", "--payload", `{"type":"MENTION","actorId":"a","recipientId":"r","message":"m"}`)
	if err == nil || !strings.Contains(err.Error(), "TRANSPORT=redis") {
		t.Errorf("got %v, want transport error", err)
	}
}

func TestResubmit(t *testing.T) {
	dbPath, mr := setupEnv(t, true)
	if _, err := run(t, "migrate"); err != nil {
		t.Fatal(err)
	}
	n, l := seedFailedDelivery(t, dbPath)

	out, err := run(t, "deliveries", "resubmit", strconv.FormatInt(l.ID, 10))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !strings.Contains(out, "Resubmitted delivery") {
		t.Errorf("resubmit output: %q", out)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	entries, err := client.XRange(context.Background(), delivery.EmailTopic, "-", "+").Result()
	if err != nil || len(entries) != 1 {
		t.Fatalf("email stream: got %d (%v), want 1", len(entries), err)
	}
	payload, _ := entries[0].Values["payload"].(string)
	var req delivery.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatal(err)
	}
	if req.NotificationID != n.ID || req.Subject != delivery.SubjectFor(n.Type) {
		t.Errorf("request: got %+v", req)
	}

	if _, err := run(t, "deliveries", "resubmit", "999"); err == nil {
		t.Error("expected error for unknown delivery")
	}
	if _, err := run(t, "deliveries", "resubmit", "abc"); err == nil {
		t.Error("expected error for invalid id")
	}
}
