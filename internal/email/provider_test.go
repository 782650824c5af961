package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/gatherle/notification-service/internal/delivery"
)

func TestRenderProducesParsableMessage(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{From: "noreply@gatherle.com", RecipientDomain: "example.test"})
	p.now = func() time.Time { return time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC) }

	req := delivery.Request{
		NotificationID: 17,
		RecipientID:    "user-42",
		Subject:        "Event cancelled",
		Body:           "The meetup on Friday is cancelled.",
	}
	raw, messageID, err := p.Render(req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if messageID == "" {
		t.Error("Message-Id is empty")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil || subject != req.Subject {
		t.Errorf("Subject: got %q (%v), want %q", subject, err, req.Subject)
	}
	to, err := mr.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "user-42@example.test" {
		t.Errorf("To: got %v (%v)", to, err)
	}
	from, err := mr.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "noreply@gatherle.com" {
		t.Errorf("From: got %v (%v)", from, err)
	}
	if got := mr.Header.Get("X-Gatherle-Notification-Id"); got != "17" {
		t.Errorf("notification header: got %q, want 17", got)
	}

	part, err := mr.NextPart()
	if err != nil {
		t.Fatalf("NextPart: %v", err)
	}
	body, err := io.ReadAll(part.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != req.Body {
		t.Errorf("body: got %q, want %q", body, req.Body)
	}
}

func TestSendWritesToOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewProvider(Config{Output: &out})

	receipt, err := p.Send(context.Background(), delivery.Request{NotificationID: 1, RecipientID: "u1", Subject: "s", Body: "b"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !receipt.Confirmed || receipt.MessageID == "" {
		t.Errorf("receipt: got %+v", receipt)
	}
	if !bytes.Contains(out.Bytes(), []byte("Subject: s")) {
		t.Errorf("output missing subject:\n%s", out.String())
	}
}

func TestSendFailureInjection(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{FailRate: 0.5})

	p.random = func() float64 { return 0.1 }
	if _, err := p.Send(context.Background(), delivery.Request{NotificationID: 1}); !errors.Is(err, ErrSimulatedFailure) {
		t.Errorf("below rate: got %v, want %v", err, ErrSimulatedFailure)
	}

	p.random = func() float64 { return 0.9 }
	if _, err := p.Send(context.Background(), delivery.Request{NotificationID: 1, RecipientID: "u"}); err != nil {
		t.Errorf("above rate: got %v, want nil", err)
	}
}

func TestSendHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider(Config{}).Send(ctx, delivery.Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestRecipientAddress(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{RecipientDomain: "d.test"})
	tests := map[string]string{
		"user-1":       "user-1@d.test",
		"a b@c":        "a_b_c@d.test",
		"Org.Member_9": "Org.Member_9@d.test",
	}
	for in, want := range tests {
		if got := p.RecipientAddress(in); got != want {
			t.Errorf("RecipientAddress(%q): got %q, want %q", in, got, want)
		}
	}
}
