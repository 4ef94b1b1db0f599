package discovery

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TysunM/subzero/internal/model"
)

func newTestMessage(id, from, subject, date, body string) *Message {
	return &Message{
		ID: id,
		Headers: map[string]string{
			"From":    from,
			"Subject": subject,
			"Date":    date,
		},
		Payload: &MessagePart{
			MimeType: "text/plain",
			Data:     base64.RawURLEncoding.EncodeToString([]byte(body)),
		},
	}
}

func TestExtractSubscription(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		check   func(t *testing.T, got *model.DiscoveredSubscription)
		name    string
		from    string
		subject string
		date    string
		body    string
		wantNil bool
	}{
		{
			name:    "message without billing keywords is skipped",
			from:    "friend@gmail.com",
			subject: "Lunch tomorrow?",
			body:    "Want to grab lunch at noon?",
			wantNil: true,
		},
		{
			name:    "known service with amount and explicit future date",
			from:    "Spotify <no-reply@spotify.com>",
			subject: "Your payment receipt",
			date:    "Sat, 01 Jun 2024 10:00:00 +0000",
			body:    "Your Premium subscription payment of $15.99 was processed. Next billing date: June 1, 2030.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.Equal(t, "Spotify Premium", got.Service)
				assert.InDelta(t, 15.99, got.Amount, 0.001)
				assert.Equal(t, model.FrequencyMonthly, got.Frequency)
				assert.Equal(t, model.CategoryMusic, got.Category)
				require.NotNil(t, got.NextBilling)
				assert.Equal(t, 2030, got.NextBilling.Year())
				assert.Equal(t, time.June, got.NextBilling.Month())
				assert.InDelta(t, 1.0, got.Confidence, 0.001)
				assert.Equal(t, "Found in email from spotify.com", got.Details)
			},
		},
		{
			name:    "amount with explicit monthly cycle",
			from:    "billing@acmeflux.com",
			subject: "Invoice",
			date:    "Sat, 01 Jun 2024 10:00:00 +0000",
			body:    "Your plan: $15.99 due monthly.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.InDelta(t, 15.99, got.Amount, 0.001)
				assert.Equal(t, model.FrequencyMonthly, got.Frequency)
			},
		},
		{
			name:    "yearly cycle outranks later monthly mention",
			from:    "billing@acmeflux.com",
			subject: "Renewal notice",
			body:    "Your annual plan renews soon. You can switch to monthly billing anytime.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.Equal(t, model.FrequencyYearly, got.Frequency)
			},
		},
		{
			name:    "missing explicit date falls back to one cycle after the message date",
			from:    "billing@acmeflux.com",
			subject: "Subscription payment processed",
			date:    "Sat, 01 Jun 2024 10:00:00 +0000",
			body:    "Thanks for your subscription payment.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				require.NotNil(t, got.NextBilling)
				assert.Equal(t, 2024, got.NextBilling.Year())
				assert.Equal(t, time.July, got.NextBilling.Month())
				assert.Equal(t, 1, got.NextBilling.Day())
			},
		},
		{
			name:    "unparseable message date falls back to thirty days out",
			from:    "billing@acmeflux.com",
			subject: "Subscription payment processed",
			date:    "not a date",
			body:    "Thanks for your subscription payment.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				require.NotNil(t, got.NextBilling)
				assert.Equal(t, now.AddDate(0, 0, 30), *got.NextBilling)
			},
		},
		{
			name:    "unrecognized sender resolves to its domain fragment",
			from:    "billing@mail.acmeflux.com",
			subject: "Your invoice",
			body:    "See the attached invoice.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.Equal(t, "Acmeflux", got.Service)
				assert.Equal(t, model.CategoryOther, got.Category)
			},
		},
		{
			name:    "generic mail provider yields the unknown placeholder",
			from:    "someone@gmail.com",
			subject: "Your invoice",
			body:    "See the attached invoice.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.Equal(t, model.UnknownService, got.Service)
			},
		},
		{
			name:    "confidence is capped at one",
			from:    "no-reply@netflix.com",
			subject: "Payment confirmed",
			date:    "Sat, 01 Jun 2024 10:00:00 +0000",
			body:    "Payment confirmed: $119.99 billed yearly. Renews on June 5, 2030.",
			check: func(t *testing.T, got *model.DiscoveredSubscription) {
				assert.Equal(t, "Netflix", got.Service)
				assert.Equal(t, model.FrequencyYearly, got.Frequency)
				assert.InDelta(t, 1.0, got.Confidence, 0.0001)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := newTestMessage("msg-1", tt.from, tt.subject, tt.date, tt.body)
			got := extractSubscription(msg, now)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, model.SourceGmail, got.Source)
			assert.Equal(t, "USD", got.Currency)
			tt.check(t, got)
		})
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{"dollar sign", "charged $9.99 today", 9.99},
		{"dollar sign with space", "Total: $ 12.50", 12.50},
		{"usd suffix", "you paid 14.99 USD", 14.99},
		{"labelled amount", "Amount: 7.99", 7.99},
		{"per month suffix", "only 4.99/month", 4.99},
		{"rejects zero", "balance of $0.00", 0},
		{"no amount", "thanks for subscribing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, extractAmount(tt.body), 0.001)
		})
	}
}

func TestExtractFrequency(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Frequency
	}{
		{"annual", "billed annually", model.FrequencyYearly},
		{"per year", "your $99 per year plan", model.FrequencyYearly},
		{"monthly", "monthly membership", model.FrequencyMonthly},
		{"weekly", "weekly delivery plan", model.FrequencyWeekly},
		{"quarterly", "billed quarterly", model.FrequencyQuarterly},
		{"every three months", "renews every 3 months", model.FrequencyQuarterly},
		{"default", "thanks for your payment", model.FrequencyMonthly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFrequency(tt.text))
		})
	}
}

func TestExtractNextBillingIgnoresPastDates(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	got, explicit := extractNextBilling(
		"Next billing date: January 2, 2020.",
		"Sat, 01 Jun 2024 10:00:00 +0000",
		model.FrequencyMonthly,
		now,
	)

	require.NotNil(t, got)
	assert.False(t, explicit)
	assert.Equal(t, time.July, got.Month())
}

func TestSenderDomain(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{"bare address", "billing@spotify.com", "spotify.com"},
		{"display name", "Spotify <no-reply@spotify.com>", "spotify.com"},
		{"uppercase", "BILLING@NETFLIX.COM", "netflix.com"},
		{"no address", "mailer-daemon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, senderDomain(tt.from))
		})
	}
}

func TestDecodeBody(t *testing.T) {
	encode := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}

	t.Run("nested multipart with html stripping", func(t *testing.T) {
		payload := &MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*MessagePart{
				{MimeType: "text/plain", Data: encode("plain text part")},
				{
					MimeType: "multipart/related",
					Parts: []*MessagePart{
						{MimeType: "text/html", Data: encode("<p>html <b>part</b></p>")},
						{MimeType: "image/png", Data: encode("binarydata")},
					},
				},
			},
		}

		body := decodeBody(payload)
		assert.Contains(t, body, "plain text part")
		assert.Contains(t, body, "html")
		assert.Contains(t, body, "part")
		assert.NotContains(t, body, "<p>")
		assert.NotContains(t, body, "binarydata")
	})

	t.Run("quoted printable transfer encoding", func(t *testing.T) {
		payload := &MessagePart{
			MimeType: "text/plain",
			Headers:  map[string]string{"Content-Transfer-Encoding": "quoted-printable"},
			Data:     encode("Total: =24=39=2E99"),
		}

		assert.Equal(t, "Total: $9.99", decodeBody(payload))
	})

	t.Run("non base64 data passes through", func(t *testing.T) {
		payload := &MessagePart{MimeType: "text/plain", Data: "already decoded?!"}
		assert.Equal(t, "already decoded?!", decodeBody(payload))
	})
}
