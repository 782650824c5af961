// Package email renders delivery requests as RFC 5322 messages and simulates handing them to a mail provider.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/gatherle/notification-service/internal/delivery"
)

// ErrSimulatedFailure is returned for sends picked by the configured failure rate
var ErrSimulatedFailure = errors.New("simulated provider failure")

// Config configures the simulated provider
type Config struct {
	From            string
	RecipientDomain string
	// FailRate is the fraction of sends, between 0 and 1, that fail.
	FailRate float64
	// Output receives every rendered message when set.
	Output io.Writer
}

// Provider is a delivery.Provider that renders messages and never contacts a real mail server
type Provider struct {
	cfg    Config
	now    func() time.Time
	random func() float64

	mu sync.Mutex
}

// NewProvider creates a simulated email provider
func NewProvider(cfg Config) *Provider {
	if cfg.From == "" {
		cfg.From = "notifications@gatherle.com"
	}
	if cfg.RecipientDomain == "" {
		cfg.RecipientDomain = "users.gatherle.com"
	}
	return &Provider{cfg: cfg, now: time.Now, random: rand.Float64}
}

// Send renders the request and records it. The receipt is always confirmed.
func (p *Provider) Send(ctx context.Context, req delivery.Request) (delivery.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return delivery.Receipt{}, err
	}
	if p.cfg.FailRate > 0 && p.random() < p.cfg.FailRate {
		return delivery.Receipt{}, ErrSimulatedFailure
	}

	raw, messageID, err := p.Render(req)
	if err != nil {
		return delivery.Receipt{}, err
	}

	if p.cfg.Output != nil {
		p.mu.Lock()
		_, err = p.cfg.Output.Write(raw)
		p.mu.Unlock()
		if err != nil {
			return delivery.Receipt{}, fmt.Errorf("failed to write message: %w", err)
		}
	}

	log.Printf("email sent notification_id=%d to=%s subject=%q message_id=%s bytes=%d",
		req.NotificationID, p.RecipientAddress(req.RecipientID), req.Subject, messageID, len(raw))
	return delivery.Receipt{Confirmed: true, MessageID: messageID}, nil
}

// Render builds the RFC 5322 message for a request and returns it with its Message-Id
func (p *Provider) Render(req delivery.Request) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(p.now())
	h.SetAddressList("From", []*mail.Address{{Name: "Gatherle", Address: p.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: p.RecipientAddress(req.RecipientID)}})
	h.SetSubject(req.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("X-Gatherle-Notification-Id", fmt.Sprint(req.NotificationID))
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("failed to generate message id: %w", err)
	}
	messageID, err := h.MessageID()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create message: %w", err)
	}
	if _, err := io.WriteString(w, req.Body); err != nil {
		return nil, "", fmt.Errorf("failed to write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish message: %w", err)
	}

	return buf.Bytes(), messageID, nil
}

// RecipientAddress maps a recipient id to the mailbox used in the To header
func (p *Provider) RecipientAddress(recipientID string) string {
	local := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_', r == '+':
			return r
		}
		return '_'
	}, recipientID)
	return local + "@" + p.cfg.RecipientDomain
}
