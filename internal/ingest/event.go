package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gatherle/notification-service/internal/notification"
)

// Topic is an inbound domain event stream
type Topic string

const (
	TopicSocial Topic = "gatherle.notifications.social"
	TopicEvents Topic = "gatherle.notifications.events"
	TopicOrg    Topic = "gatherle.notifications.org"
)

// Topics lists every inbound topic
var Topics = []Topic{TopicSocial, TopicEvents, TopicOrg}

// ParseTopic accepts a full topic name or its short form ("social", "events", "org")
func ParseTopic(s string) (Topic, error) {
	for _, t := range Topics {
		if s == string(t) || "gatherle.notifications."+s == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// ErrMalformedEvent marks a payload that can never be processed
var ErrMalformedEvent = errors.New("malformed notification event")

// ParseEvent decodes and validates an inbound event payload
func ParseEvent(payload []byte) (*notification.CreateNotificationRequest, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEvent)
	}

	var req notification.CreateNotificationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return &req, nil
}

// IdempotencyKey derives the dedup key of a stream message. The transport message id is
// stable across redeliveries, so a redelivered event maps to the same key.
func IdempotencyKey(req *notification.CreateNotificationRequest, messageID string) string {
	var referenceID string
	if req.ReferenceID != nil {
		referenceID = *req.ReferenceID
	}

	h := sha256.New()
	for _, part := range []string{req.Type, req.ActorID, req.RecipientID, referenceID, messageID} {
		h.Write([]byte(part))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
