// Package discovery implements the subscription discovery engine: it scans a
// user's mailbox and bank activity for evidence of recurring subscriptions and
// produces ranked, deduplicated candidates with confidence scores.
package discovery

import (
	"context"
	"strings"

	"github.com/TysunM/subzero/internal/model"
)

// TokenStore provides access to stored OAuth credentials for a user.
// Implementations are backed by persistent storage and an OAuth client
// capable of refreshing expired tokens.
type TokenStore interface {
	// Get returns the stored credentials for the user, or an error wrapping
	// common.ErrNotFound when the user has never connected the provider.
	Get(ctx context.Context, userID string) (*model.Credentials, error)
	// Save persists credentials for the user, replacing any existing ones.
	Save(ctx context.Context, creds *model.Credentials) error
	// Refresh exchanges the stored refresh token for a fresh access token,
	// persists it, and returns the updated credentials.
	Refresh(ctx context.Context, userID string) (*model.Credentials, error)
}

// MessageRef identifies a single message within the mail provider.
type MessageRef struct {
	ID string
}

// MessagePart is one node of a message's MIME tree. Data carries the part
// content as URL-safe base64, matching what mail APIs return on the wire.
type MessagePart struct {
	Headers  map[string]string
	MimeType string
	Data     string
	Parts    []*MessagePart
}

// Message is a fully fetched mail message: headers plus the MIME body tree.
type Message struct {
	Headers map[string]string
	Payload *MessagePart
	ID      string
}

// Header returns the named header value, matching case-insensitively.
func (m *Message) Header(name string) string {
	if v, ok := m.Headers[name]; ok {
		return v
	}
	for k, v := range m.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// MailSearchProvider abstracts a third-party mail API offering keyword and
// sender search plus full-message retrieval. Both calls are network-backed
// and may fail arbitrarily; the engine contains those failures per query and
// per message.
type MailSearchProvider interface {
	Search(ctx context.Context, creds *model.Credentials, query string, limit int) ([]MessageRef, error)
	Fetch(ctx context.Context, creds *model.Credentials, ref MessageRef) (*Message, error)
}
