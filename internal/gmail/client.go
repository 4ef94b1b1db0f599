// Package gmail provides the Gmail-backed mail search provider and the
// OAuth token plumbing behind it.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/discovery"
	"github.com/TysunM/subzero/internal/model"
)

// authenticatedUser is Gmail's alias for the account the token belongs to.
const authenticatedUser = "me"

// Client talks to the Gmail API. A single client serves all users; the
// credentials for the target mailbox are passed per call.
type Client struct {
	logger    *slog.Logger
	retryOpts common.RetryOptions
}

// NewClient creates a Gmail API client.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger: logger,
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Search runs a Gmail query and returns references to the matching messages,
// at most limit of them.
func (c *Client) Search(ctx context.Context, creds *model.Credentials, query string, limit int) ([]discovery.MessageRef, error) {
	svc, err := c.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	var resp *gmailapi.ListMessagesResponse
	err = common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = svc.Users.Messages.List(authenticatedUser).
			Q(query).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	refs := make([]discovery.MessageRef, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		refs = append(refs, discovery.MessageRef{ID: msg.Id})
	}
	return refs, nil
}

// Fetch retrieves one message in full, including its MIME body tree.
func (c *Client) Fetch(ctx context.Context, creds *model.Credentials, ref discovery.MessageRef) (*discovery.Message, error) {
	svc, err := c.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	var msg *gmailapi.Message
	err = common.WithRetry(ctx, func() error {
		var callErr error
		msg, callErr = svc.Users.Messages.Get(authenticatedUser, ref.ID).
			Format("full").
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", ref.ID, err)
	}

	return convertMessage(msg), nil
}

func (c *Client) service(ctx context.Context, creds *model.Credentials) (*gmailapi.Service, error) {
	if creds == nil || creds.AccessToken == "" {
		return nil, common.ErrNotConnected
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
	})
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return svc, nil
}

// classifyAPIError marks rate-limit responses as retryable and everything
// else as terminal so the retry loop does not hammer a broken request.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
		case http.StatusForbidden:
			// Gmail reports quota exhaustion as 403.
			for _, e := range apiErr.Errors {
				if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
					return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
				}
			}
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return &common.RetryableError{Err: err, Retryable: true}
		}
	}

	return &common.RetryableError{Err: err, Retryable: false}
}

// convertMessage maps the Gmail wire message onto the provider-neutral
// message shape the discovery engine consumes.
func convertMessage(msg *gmailapi.Message) *discovery.Message {
	if msg == nil {
		return nil
	}

	out := &discovery.Message{
		ID:      msg.Id,
		Headers: make(map[string]string),
		Payload: convertPart(msg.Payload),
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			out.Headers[h.Name] = h.Value
		}
	}
	return out
}

func convertPart(part *gmailapi.MessagePart) *discovery.MessagePart {
	if part == nil {
		return nil
	}

	out := &discovery.MessagePart{
		MimeType: part.MimeType,
		Headers:  make(map[string]string, len(part.Headers)),
	}
	for _, h := range part.Headers {
		out.Headers[h.Name] = h.Value
	}
	if part.Body != nil {
		out.Data = part.Body.Data
	}
	for _, child := range part.Parts {
		out.Parts = append(out.Parts, convertPart(child))
	}
	return out
}

// Ensure Client satisfies the discovery engine's provider contract.
var _ discovery.MailSearchProvider = (*Client)(nil)
