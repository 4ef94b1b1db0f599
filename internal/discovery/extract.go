package discovery

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/TysunM/subzero/internal/model"
)

// Confidence is built additively from independent signals and capped at 1.0.
const (
	baseConfidence      = 0.40
	amountBonus         = 0.25
	frequencyBonus      = 0.15
	billingDateBonus    = 0.10
	namedServiceBonus   = 0.10
	knownServiceBonus   = 0.15
	paymentConfirmBonus = 0.10
)

// Currency is fixed; the extractor performs no multi-currency detection.
const currencyUSD = "USD"

// extractSubscription turns one mail message into a subscription candidate,
// or nil when the message does not look like subscription mail. Every field
// is extracted independently by a pure function over the message text, so
// extraction order does not matter.
func extractSubscription(msg *Message, now time.Time) *model.DiscoveredSubscription {
	if msg == nil {
		return nil
	}

	subject := msg.Header("Subject")
	from := msg.Header("From")
	body := decodeBody(msg.Payload)

	combined := strings.ToLower(subject + " " + from + " " + body)
	if !containsAnyKeyword(combined, gateKeywords) {
		return nil
	}

	service := resolveService(combined, from)
	amount := extractAmount(body)
	frequency := extractFrequency(body + " " + subject)
	nextBilling, dateFound := extractNextBilling(body, msg.Header("Date"), frequency, now)

	confidence := baseConfidence
	if amount > 0 {
		confidence += amountBonus
	}
	if frequency != model.FrequencyMonthly {
		// An explicit non-monthly signal. A detected "monthly" is
		// indistinguishable from the default and earns no bonus; see the
		// scoring-bias note in DESIGN.md.
		confidence += frequencyBonus
	}
	if dateFound {
		confidence += billingDateBonus
	}
	if service != model.UnknownService {
		confidence += namedServiceBonus
	}
	if _, known := LookupService(strings.ToLower(service)); known {
		confidence += knownServiceBonus
	}
	if strings.Contains(combined, "payment") && strings.Contains(combined, "confirm") {
		confidence += paymentConfirmBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &model.DiscoveredSubscription{
		Service:     service,
		Amount:      amount,
		Currency:    currencyUSD,
		Frequency:   frequency,
		Category:    CategoryFor(service),
		NextBilling: nextBilling,
		Source:      model.SourceGmail,
		Confidence:  confidence,
		Details:     provenance(from),
	}
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// resolveService finds a service name for the message: a curated known
// service mentioned anywhere in the text, else the sender's second-level
// domain fragment title-cased, else the unknown placeholder.
func resolveService(combined, from string) string {
	if name, ok := LookupService(combined); ok {
		return name
	}

	if fragment := domainFragment(senderDomain(from)); fragment != "" && !genericDomains[fragment] {
		return titleCase(fragment)
	}

	return model.UnknownService
}

// senderDomain extracts the domain of a From header, handling both bare
// addresses and display-name forms.
func senderDomain(from string) string {
	addr := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		addr = parsed.Address
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.ToLower(strings.TrimRight(addr[i+1:], "> "))
	}
	return ""
}

// domainFragment returns the second-level label of a domain: "spotify" for
// "billing.spotify.com".
func domainFragment(domain string) string {
	if domain == "" {
		return ""
	}
	parts := strings.Split(domain, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return parts[0]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// extractAmount applies the amount patterns in sequence and returns the
// first captured value in (0, 10000). Zero means no amount was found.
func extractAmount(body string) float64 {
	for _, pattern := range amountPatterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			value, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if value > 0 && value < 10000 {
				return value
			}
		}
	}
	return 0
}

// extractFrequency returns the first billing cycle whose pattern matches,
// checked in priority order, defaulting to monthly.
func extractFrequency(text string) model.Frequency {
	for _, fp := range frequencyPatterns {
		if fp.re.MatchString(text) {
			return fp.frequency
		}
	}
	return model.FrequencyMonthly
}

// extractNextBilling looks for an explicit future billing date in the body.
// Failing that it estimates one billing cycle after the message's own date,
// or thirty days from now when the message date is unparseable. The boolean
// reports whether an explicit date was found.
func extractNextBilling(body, dateHeader string, frequency model.Frequency, now time.Time) (*time.Time, bool) {
	for _, pattern := range billingDatePatterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			parsed, ok := parseAnyDate(match[1])
			if ok && parsed.After(now) {
				return &parsed, true
			}
		}
	}

	if msgDate, ok := parseMessageDate(dateHeader); ok {
		estimate := frequency.NextAfter(msgDate)
		return &estimate, false
	}

	estimate := now.AddDate(0, 0, 30)
	return &estimate, false
}

func parseAnyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseMessageDate parses a Date header, accepting both RFC 5322 dates and
// the plain forms some providers emit.
func parseMessageDate(header string) (time.Time, bool) {
	if header == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(header); err == nil {
		return t, true
	}
	return parseAnyDate(header)
}

// provenance builds the free-text note recording where a candidate came from.
func provenance(from string) string {
	if domain := senderDomain(from); domain != "" {
		return "Found in email from " + domain
	}
	return "Found in email from " + from
}
